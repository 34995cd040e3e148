package usecase

import (
	"time"

	"course-advisor/internal/domain"
)

// Stage names reported to a QueryObserver.
const (
	StageRouter   = "router"
	StageProvider = "provider"
	StageAgent    = "agent"
)

// QueryObserver receives per-query measurements from the dispatcher.
type QueryObserver interface {
	QueryAnswered(route domain.Category, tool domain.SourceTool)
	FailureAbsorbed(stage string)
	StageCompleted(stage string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) QueryAnswered(domain.Category, domain.SourceTool) {}
func (noopObserver) FailureAbsorbed(string)                          {}
func (noopObserver) StageCompleted(string, time.Duration)            {}
