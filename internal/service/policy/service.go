package policy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/passpolicy/pkg/denylist"
	apperrors "github.com/jwalitptl/passpolicy/pkg/errors"
	"github.com/jwalitptl/passpolicy/pkg/logger"
	"github.com/jwalitptl/passpolicy/pkg/metrics"
	"github.com/jwalitptl/passpolicy/pkg/password"
	"github.com/jwalitptl/passpolicy/pkg/security"
)

// maxAuditLine bounds a single audited line.
const maxAuditLine = 64 * 1024

type Service struct {
	policy  *password.Policy
	hasher  security.PasswordHasher
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewService(policy *password.Policy, hasher security.PasswordHasher, m *metrics.Metrics, log *logger.Logger) *Service {
	if policy == nil {
		policy = password.Default()
	}
	if hasher == nil {
		hasher = security.NewBcryptHasher(0, policy)
	}
	if m == nil {
		m = metrics.New("passpolicy", nil)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{policy: policy, hasher: hasher, metrics: m, logger: log}
}

func (s *Service) Policy() *password.Policy {
	return s.policy
}

func (s *Service) Evaluate(pw string) password.ValidationResult {
	res := s.policy.Evaluate(pw)
	s.metrics.ObserveEvaluation(res.Score, res.IsValid)
	s.logger.ZL.Debug().
		Int("score", res.Score).
		Bool("valid", res.IsValid).
		Int("errors", len(res.Errors)).
		Msg("password evaluated")
	return res
}

func (s *Service) Generate(length int) string {
	pw := s.policy.Generate(length)
	s.metrics.Generations.Inc()
	s.metrics.GeneratedLength.Observe(float64(len(pw)))
	s.logger.ZL.Debug().Int("requested", length).Int("length", len(pw)).Msg("password generated")
	return pw
}

func (s *Service) Hash(pw string) (string, error) {
	hash, err := s.hasher.Hash(pw)
	switch {
	case err == nil:
		s.metrics.HashOperations.WithLabelValues("ok").Inc()
	case apperrors.Is(err, apperrors.ErrWeakPassword):
		s.metrics.HashOperations.WithLabelValues("rejected").Inc()
		s.logger.ZL.Info().Msg("hash refused: password does not meet policy")
	default:
		s.metrics.HashOperations.WithLabelValues("error").Inc()
		s.logger.Error(err, "hash failed")
	}
	return hash, err
}

// AuditReport summarizes an audit run. It never holds password material.
type AuditReport struct {
	RunID    uuid.UUID                  `json:"run_id"`
	Total    int                        `json:"total"`
	Valid    int                        `json:"valid"`
	Invalid  int                        `json:"invalid"`
	Common   int                        `json:"common"`
	ByScore  [password.MaxScore + 1]int `json:"by_score"`
	Failures map[string]int             `json:"failures"`
	Duration time.Duration              `json:"duration"`
}

// Audit evaluates one password per line of r. Empty lines are skipped;
// surrounding spaces are part of the password.
func (s *Service) Audit(ctx context.Context, r io.Reader) (*AuditReport, error) {
	timer := prometheus.NewTimer(s.metrics.AuditDuration)
	defer timer.ObserveDuration()

	report := &AuditReport{
		RunID:    uuid.New(),
		Failures: make(map[string]int),
	}
	log := s.logger.WithFields(map[string]interface{}{"run_id": report.RunID.String()})
	log.Info("audit started")
	start := time.Now()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxAuditLine)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		res := s.Evaluate(line)
		report.Total++
		report.ByScore[res.Score]++
		if res.IsValid {
			report.Valid++
		} else {
			report.Invalid++
		}
		for _, msg := range res.Errors {
			report.Failures[msg]++
		}
		if s.policy.IsCommon(line) {
			report.Common++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit input: %w", err)
	}

	report.Duration = time.Since(start)
	log.ZL.Info().
		Int("total", report.Total).
		Int("valid", report.Valid).
		Int("invalid", report.Invalid).
		Int("common", report.Common).
		Dur("duration", report.Duration).
		Msg("audit finished")
	return report, nil
}

// DenylistSource is a denylist source plus whether a failed load is fatal.
type DenylistSource struct {
	denylist.Source
	Required bool
}

// BuildPolicy loads the extra denylist entries and returns a policy using
// them. Optional sources that fail are logged and skipped.
func BuildPolicy(ctx context.Context, sources []DenylistSource, m *metrics.Metrics, log *logger.Logger) (*password.Policy, error) {
	if m == nil {
		m = metrics.New("passpolicy", nil)
	}
	if log == nil {
		log = logger.Nop()
	}

	lists := make([][]string, 0, len(sources))
	for _, src := range sources {
		start := time.Now()
		entries, err := src.Entries(ctx)
		m.DenylistLoadLatency.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())

		if err != nil {
			m.DenylistLoads.WithLabelValues(src.Name(), "error").Inc()
			if src.Required {
				return nil, fmt.Errorf("failed to load denylist %s: %w", src.Name(), err)
			}
			log.ZL.Warn().Err(err).Str("source", src.Name()).Msg("skipping denylist source")
			continue
		}

		m.DenylistLoads.WithLabelValues(src.Name(), "ok").Inc()
		log.ZL.Info().Str("source", src.Name()).Int("entries", len(entries)).Msg("denylist source loaded")
		lists = append(lists, entries)
	}

	extra := denylist.Merge(lists...)
	m.DenylistEntries.Set(float64(len(extra)))
	return password.New(password.WithDenylist(extra...)), nil
}
