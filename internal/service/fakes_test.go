package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"qbank-admin/internal/entity"
	"qbank-admin/internal/repository/contract"
	"qbank-admin/internal/repository/specification"
	"qbank-admin/internal/repository/unitofwork"
	"qbank-admin/pkg/events"
	"qbank-admin/pkg/ingestion"
)

// fakeDB is an in-memory stand-in for the gorm repositories. Specifications
// are interpreted by type.
type fakeDB struct {
	mu        sync.Mutex
	questions []*entity.Question
	images    []*entity.QuestionImage
	files     []*entity.ArchiveFile

	failCreate map[string]bool // question content that makes Create fail
	failUpdate error
	commits    int
}

func newFakeDB() *fakeDB {
	return &fakeDB{failCreate: map[string]bool{}}
}

func (db *fakeDB) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{db: db}
}

type fakeUow struct {
	db      *fakeDB
	pending []func()
	inTx    bool
}

func (u *fakeUow) Begin(ctx context.Context) error {
	u.inTx = true
	return nil
}

func (u *fakeUow) Commit() error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	for _, apply := range u.pending {
		apply()
	}
	u.pending = nil
	u.inTx = false
	u.db.commits++
	return nil
}

func (u *fakeUow) Rollback() error {
	u.pending = nil
	u.inTx = false
	return nil
}

// write applies fn now, or at Commit inside a transaction.
func (u *fakeUow) write(fn func()) {
	if u.inTx {
		u.pending = append(u.pending, fn)
		return
	}
	u.db.mu.Lock()
	fn()
	u.db.mu.Unlock()
}

func (u *fakeUow) QuestionRepository() contract.QuestionRepository           { return &fakeQuestions{u} }
func (u *fakeUow) QuestionImageRepository() contract.QuestionImageRepository { return &fakeImages{u} }
func (u *fakeUow) ArchiveFileRepository() contract.ArchiveFileRepository     { return &fakeFiles{u} }

type fakeQuestions struct{ u *fakeUow }

func (r *fakeQuestions) Create(ctx context.Context, q *entity.Question) error {
	if r.u.db.failCreate[q.Content] {
		return errors.New("insert failed")
	}
	cp := *q
	r.u.write(func() { r.u.db.questions = append(r.u.db.questions, &cp) })
	return nil
}

func (r *fakeQuestions) Update(ctx context.Context, q *entity.Question) error {
	return errors.New("not used")
}

func (r *fakeQuestions) UpdateAnswer(ctx context.Context, id uuid.UUID, answer string) (bool, error) {
	if r.u.db.failUpdate != nil {
		return false, r.u.db.failUpdate
	}
	r.u.db.mu.Lock()
	defer r.u.db.mu.Unlock()
	for _, q := range r.u.db.questions {
		if q.Id == id {
			q.Answer = answer
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeQuestions) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Question, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeQuestions) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Question, error) {
	r.u.db.mu.Lock()
	defer r.u.db.mu.Unlock()
	var out []*entity.Question
	for _, q := range r.u.db.questions {
		if matchQuestion(q, specs) {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeQuestions) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func matchQuestion(q *entity.Question, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.BySubjectID:
			if q.SubjectId != s.SubjectID {
				return false
			}
		case specification.ByBaseCodes:
			found := false
			for _, c := range s.BaseCodes {
				found = found || c == q.BaseCode
			}
			if !found {
				return false
			}
		case specification.ByID:
			if q.Id != s.ID {
				return false
			}
		}
	}
	return true
}

type fakeImages struct{ u *fakeUow }

func (r *fakeImages) CreateBulk(ctx context.Context, images []*entity.QuestionImage) error {
	r.u.write(func() { r.u.db.images = append(r.u.db.images, images...) })
	return nil
}

func (r *fakeImages) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuestionImage, error) {
	r.u.db.mu.Lock()
	defer r.u.db.mu.Unlock()
	var out []*entity.QuestionImage
	for _, img := range r.u.db.images {
		keep := true
		for _, spec := range specs {
			if s, ok := spec.(specification.ByQuestionID); ok && img.QuestionId != s.QuestionID {
				keep = false
			}
		}
		if keep {
			out = append(out, img)
		}
	}
	return out, nil
}

type fakeFiles struct{ u *fakeUow }

func (r *fakeFiles) Create(ctx context.Context, f *entity.ArchiveFile) error {
	cp := *f
	r.u.write(func() { r.u.db.files = append(r.u.db.files, &cp) })
	return nil
}

func (r *fakeFiles) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ArchiveFile, error) {
	r.u.db.mu.Lock()
	defer r.u.db.mu.Unlock()
	var out []*entity.ArchiveFile
	for _, f := range r.u.db.files {
		if matchFile(f, specs) {
			out = append(out, f)
		}
	}
	for _, spec := range specs {
		if p, ok := spec.(specification.Pagination); ok {
			if p.Offset >= len(out) {
				return []*entity.ArchiveFile{}, nil
			}
			end := p.Offset + p.Limit
			if end > len(out) {
				end = len(out)
			}
			out = out[p.Offset:end]
		}
	}
	return out, nil
}

func (r *fakeFiles) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.u.db.mu.Lock()
	defer r.u.db.mu.Unlock()
	var n int64
	for _, f := range r.u.db.files {
		if matchFile(f, specs) {
			n++
		}
	}
	return n, nil
}

func matchFile(f *entity.ArchiveFile, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.BySubjectID:
			if f.SubjectId != s.SubjectID {
				return false
			}
		case specification.NameContains:
			if !strings.Contains(strings.ToLower(f.Name), strings.ToLower(s.Term)) {
				return false
			}
		case specification.FilterBy:
			if s.Field == "mime_type" && f.MimeType != s.Value {
				return false
			}
		}
	}
	return true
}

type fakeParser struct {
	questions *ingestion.ParsedQuestions
	answers   *ingestion.ParsedAnswers
	err       error
	labels    []string
}

func (p *fakeParser) ParseQuestions(ctx context.Context, doc ingestion.Document, opts ingestion.QuestionOptions) (*ingestion.ParsedQuestions, error) {
	p.labels = opts.Labels
	return p.questions, p.err
}

func (p *fakeParser) ParseAnswers(ctx context.Context, doc ingestion.Document) (*ingestion.ParsedAnswers, error) {
	return p.answers, p.err
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingEvents) Publish(ctx context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingEvents) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
