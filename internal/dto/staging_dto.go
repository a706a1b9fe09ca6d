package dto

// PreviewQuestionsRequest holds the form fields that accompany a question
// document upload.
type PreviewQuestionsRequest struct {
	SubjectId int64  `form:"subjectId" validate:"required,min=1"`
	SaveCopy  bool   `form:"saveCopy"`
	Labels    string `form:"labels"`
}

type PreviewAnswersRequest struct {
	SubjectId int64 `form:"subjectId" validate:"required,min=1"`
}

type CommitQuestionsQuery struct {
	SaveCopy bool `query:"saveCopy"`
}

// SessionConsumedMessage is published once a staging session has been
// committed so its staged images can be purged.
type SessionConsumedMessage struct {
	SessionId string `json:"sessionId"`
	Kind      string `json:"kind"`
}
