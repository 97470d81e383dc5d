package services

import (
	"bytes"
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/providers/llm"
	"github.com/yoockh/jobber/internal/skills"
	"github.com/yoockh/jobber/internal/storage"
	"github.com/yoockh/jobber/internal/utils"
)

const (
	MaxResumeBytes = 10 << 20
	pdfMIME        = "application/pdf"
)

type ResumeResult struct {
	User        *models.User `json:"user"`
	ResumeURL   string       `json:"resumeUrl"`
	SkillsFound []string     `json:"skillsFound"`
}

type ResumeService interface {
	Upload(ctx context.Context, userID int64, r io.Reader) (*ResumeResult, error)
}

type resumeService struct {
	users     UserService
	uploader  storage.Uploader
	extractor llm.TextExtractor
	log       *logrus.Logger
}

// NewResumeService needs an uploader; extractor may be nil, in which case
// no skills are extracted.
func NewResumeService(users UserService, uploader storage.Uploader, extractor llm.TextExtractor, log *logrus.Logger) ResumeService {
	if log == nil {
		log = logrus.New()
	}
	return &resumeService{users: users, uploader: uploader, extractor: extractor, log: log}
}

func (s *resumeService) Upload(ctx context.Context, userID int64, r io.Reader) (*ResumeResult, error) {
	const op = "ResumeService.Upload"

	if s.uploader == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "resume storage is not configured", nil)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxResumeBytes+1))
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "failed to read upload", err)
	}
	if len(data) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "file is empty", nil)
	}
	if len(data) > MaxResumeBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "file too large (max 10MB)", nil)
	}

	url, err := s.uploader.Upload(ctx, storage.ResumeObject(userID), bytes.NewReader(data))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to store resume", err)
	}

	found := s.extractSkills(ctx, userID, data)

	u, err := s.users.SetResume(ctx, userID, url, found)
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []string{}
	}
	return &ResumeResult{User: u, ResumeURL: url, SkillsFound: found}, nil
}

// extractSkills is best-effort: extraction errors are logged and yield no skills.
func (s *resumeService) extractSkills(ctx context.Context, userID int64, data []byte) []string {
	if s.extractor == nil {
		return nil
	}
	text, err := s.extractor.ExtractText(ctx, pdfMIME, data)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("resume text extraction failed")
		return nil
	}
	return skills.Extract(text)
}
