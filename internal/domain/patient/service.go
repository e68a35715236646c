package patient

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// CodeAssigner obtains a server-assigned code for a new patient.
type CodeAssigner interface {
	AssignCode(ctx context.Context) (string, error)
}

// Recorder receives domain events for metrics.
type Recorder interface {
	PatientCreated()
	CodeAssignment(err error)
}

type Service struct {
	patients Repository
	codes    CodeAssigner
	recorder Recorder
	logger   zerolog.Logger
}

type Option func(*Service)

// WithCodeAssigner makes CreatePatient fetch a code before storing a record.
func WithCodeAssigner(a CodeAssigner) Option {
	return func(s *Service) { s.codes = a }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(patients Repository, opts ...Option) *Service {
	s := &Service{patients: patients, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePatient validates p, assigns a code when a CodeAssigner is set, and
// appends the record. Nothing is stored if either step fails.
func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}

	p.Code = ""
	if s.codes != nil {
		code, err := s.codes.AssignCode(ctx)
		if s.recorder != nil {
			s.recorder.CodeAssignment(err)
		}
		if err != nil {
			return fmt.Errorf("assign code for patient %s: %w", p.CI, err)
		}
		p.Code = code
	}

	if err := s.patients.Create(ctx, p); err != nil {
		return err
	}
	if s.recorder != nil {
		s.recorder.PatientCreated()
	}

	s.logger.Info().Str("ci", p.CI).Str("code", p.Code).Msg("patient created")
	return nil
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.patients.List(ctx)
}

func (s *Service) GetPatient(ctx context.Context, ci string) (*Patient, error) {
	return s.patients.GetByCI(ctx, ci)
}

// UpdatePatient changes Name and LastName only. The new values are not
// validated.
func (s *Service) UpdatePatient(ctx context.Context, ci string, req UpdateRequest) (*Patient, error) {
	p, err := s.patients.Update(ctx, ci, req.Name, req.LastName)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("ci", ci).Msg("patient updated")
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, ci string) error {
	if err := s.patients.Delete(ctx, ci); err != nil {
		return err
	}
	s.logger.Info().Str("ci", ci).Msg("patient deleted")
	return nil
}
