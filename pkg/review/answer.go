package review

import "qbank-admin/pkg/staging"

// AnswerReview curates an answer-import session. Answer values and the
// initial selection come from the server; only the selection is editable.
type AnswerReview struct {
	*Controller[*staging.AnswerBlock]
}

func NewAnswerReview(s *staging.AnswerSession) *AnswerReview {
	return &AnswerReview{Controller: newController(s.SessionID, s.SubjectID, s.Blocks)}
}

func (r *AnswerReview) CommitRequest() staging.AnswerCommitRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	req := staging.AnswerCommitRequest{
		SessionID: r.sessionID,
		Blocks:    make([]staging.AnswerCommitBlock, 0, len(r.blocks)),
	}
	for _, b := range r.blocks {
		req.Blocks = append(req.Blocks, staging.AnswerCommitBlock{Index: b.Index, Include: b.Include})
	}
	return req
}
