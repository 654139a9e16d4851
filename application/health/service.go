package health

import (
	"datagen/middleware"

	json "github.com/json-iterator/go"
)

// InFlightCounter reports admitted generation requests.
type InFlightCounter interface {
	InFlight() int
}

type Service struct {
	journalRepo *Repository
	admission   InFlightCounter
}

func NewService(journalRepo *Repository, admission InFlightCounter) *Service {
	return &Service{
		journalRepo: journalRepo,
		admission:   admission,
	}
}

// Status is the health report.
type Status struct {
	Status   string `json:"status"`
	Journal  string `json:"journal"`
	InFlight int    `json:"in_flight"`
}

// CheckHealth reports the journal database state and the admission counter.
// The returned error is non-nil when a dependency is down.
func (s *Service) CheckHealth() (Status, error) {
	result := Status{
		Status:   "ok",
		Journal:  "ok",
		InFlight: s.admission.InFlight(),
	}

	if s.journalRepo == nil || s.journalRepo.db == nil {
		result.Journal = "disabled"
		return result, nil
	}

	if err := s.journalRepo.Ping(); err != nil {
		result.Status = "degraded"
		result.Journal = "error"
		return result, err
	}

	return result, nil
}

func (s *Service) CheckHealthStream() <-chan middleware.StreamChunk {
	chunkChan := make(chan middleware.StreamChunk, 2)
	go func() {
		defer close(chunkChan)

		result, _ := s.CheckHealth()

		jsonData, err := json.Marshal(result)
		if err != nil {
			chunkChan <- middleware.StreamChunk{Error: err}
			return
		}
		jsonData = append(jsonData, '\n')
		chunkChan <- middleware.StreamChunk{JSONBuf: &jsonData}
	}()
	return chunkChan
}
