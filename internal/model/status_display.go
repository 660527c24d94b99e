package model

// Display labels for the Korean staff console. Kept outside the transition
// logic: the state machine never compares display strings.

var participantStatusLabels = map[ParticipantStatus]string{
	ParticipantStatusDraft:            "작성중",
	ParticipantStatusSigning:          "서명 대기",
	ParticipantStatusWaitingApproval:  "승인 대기",
	ParticipantStatusApproved:         "승인 완료",
	ParticipantStatusRejected:         "반려",
	ParticipantStatusResignRequested:  "재서명 요청",
	ParticipantStatusResignInProgress: "재서명 진행",
	ParticipantStatusDownloadable:     "서명 완료",
}

var contractStatusLabels = map[ContractStatus]string{
	ContractStatusDraft:    "작성중",
	ContractStatusWaiting:  "발송 대기",
	ContractStatusSigning:  "서명 진행중",
	ContractStatusComplete: "체결 완료",
}

func (s ParticipantStatus) Display() string {
	if label, ok := participantStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s ContractStatus) Display() string {
	if label, ok := contractStatusLabels[s]; ok {
		return label
	}
	return string(s)
}
