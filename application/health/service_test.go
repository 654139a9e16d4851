package health

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	json "github.com/json-iterator/go"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type fixedCounter int

func (c fixedCounter) InFlight() int { return int(c) }

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("Failed to open gorm: %v", err)
	}
	return db, mock
}

func TestCheckHealth(t *testing.T) {
	t.Run("journal disabled", func(t *testing.T) {
		svc := NewService(NewRepository(nil), fixedCounter(3))

		status, err := svc.CheckHealth()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.Status != "ok" || status.Journal != "disabled" || status.InFlight != 3 {
			t.Errorf("Unexpected status %+v", status)
		}
	})

	t.Run("journal reachable", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectPing()

		status, err := NewService(NewRepository(db), fixedCounter(0)).CheckHealth()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.Journal != "ok" {
			t.Errorf("Expected journal ok, got %q", status.Journal)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("journal down", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		status, err := NewService(NewRepository(db), fixedCounter(1)).CheckHealth()
		if err == nil {
			t.Fatal("Expected error")
		}
		if status.Status != "degraded" || status.Journal != "error" {
			t.Errorf("Unexpected status %+v", status)
		}
	})
}

func TestCheckHealthStream(t *testing.T) {
	svc := NewService(nil, fixedCounter(2))

	var lines int
	for chunk := range svc.CheckHealthStream() {
		if chunk.Error != nil {
			t.Fatalf("unexpected error: %v", chunk.Error)
		}
		data := *chunk.JSONBuf
		if data[len(data)-1] != '\n' {
			t.Error("Expected newline terminated chunk")
		}

		var status Status
		if err := json.Unmarshal(data, &status); err != nil {
			t.Fatalf("Failed to parse chunk: %v", err)
		}
		if status.InFlight != 2 {
			t.Errorf("Expected in_flight 2, got %d", status.InFlight)
		}
		lines++
	}
	if lines != 1 {
		t.Errorf("Expected one chunk, got %d", lines)
	}
}
