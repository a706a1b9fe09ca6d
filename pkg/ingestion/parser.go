// Package ingestion is the contract of the external document parser that
// turns an uploaded question or answer document into ordered blocks.
package ingestion

import (
	"context"
	"fmt"

	"qbank-admin/pkg/staging"
)

// Document is an uploaded file as received from the admin.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

type QuestionOptions struct {
	Labels []string
}

// Image is one picture cut from the document, addressed by Index within its
// parse run.
type Image struct {
	Index       int    `json:"index"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// ParsedQuestion is a question block as the parser emits it. TypeCode and
// BaseCode form the business key later used to correlate answer keys.
type ParsedQuestion struct {
	QuestionType staging.QuestionType `json:"questionType"`
	TypeCode     string               `json:"typeCode"`
	BaseCode     string               `json:"baseCode"`
	SubKey       string               `json:"subKey"`
	Difficulty   string               `json:"difficulty"`
	Chapter      string               `json:"chapter"`
	Content      string               `json:"content"`
	OptionA      string               `json:"optionA"`
	OptionB      string               `json:"optionB"`
	OptionC      string               `json:"optionC"`
	OptionD      string               `json:"optionD"`
	Answer       string               `json:"answer"`
	ImageIndexes []int                `json:"imageIndexes"`
	Warnings     []string             `json:"warnings"`
}

type ParsedQuestions struct {
	Questions []ParsedQuestion `json:"questions"`
	Images    []Image          `json:"images"`
}

// ParsedAnswer proposes answers for one business key. Sub-key "" is a single
// answer, letters address the parts of a multi-part essay.
type ParsedAnswer struct {
	TypeCode string            `json:"typeCode"`
	BaseCode string            `json:"baseCode"`
	Answers  map[string]string `json:"answers"`
}

type ParsedAnswers struct {
	Answers []ParsedAnswer `json:"answers"`
}

type Parser interface {
	ParseQuestions(ctx context.Context, doc Document, opts QuestionOptions) (*ParsedQuestions, error)
	ParseAnswers(ctx context.Context, doc Document) (*ParsedAnswers, error)
}

// CheckQuestions rejects empty output and image references the parser did
// not deliver.
func CheckQuestions(p *ParsedQuestions) error {
	if p == nil || len(p.Questions) == 0 {
		return &staging.RemoteError{Kind: staging.ErrParse, Message: "document contains no questions"}
	}
	known := make(map[int]bool, len(p.Images))
	for _, img := range p.Images {
		known[img.Index] = true
	}
	for i, q := range p.Questions {
		for _, idx := range q.ImageIndexes {
			if !known[idx] {
				return &staging.RemoteError{Kind: staging.ErrParse, Message: fmt.Sprintf("question %d references missing image %d", i, idx)}
			}
		}
	}
	return nil
}

func CheckAnswers(p *ParsedAnswers) error {
	if p == nil || len(p.Answers) == 0 {
		return &staging.RemoteError{Kind: staging.ErrParse, Message: "document contains no answers"}
	}
	return nil
}
