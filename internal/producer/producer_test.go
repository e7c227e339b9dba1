package producer

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/aa-dank/review-sender/internal/events"
)

func TestNewProducer(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		topic   string
		wantErr bool
	}{
		{
			name:    "valid producer",
			brokers: "localhost:9092",
			topic:   "distribution.results",
		},
		{
			name:    "empty brokers",
			brokers: "",
			topic:   "distribution.results",
			wantErr: true,
		},
		{
			name:    "empty topic",
			brokers: "localhost:9092",
			topic:   "",
			wantErr: true,
		},
		{
			name:    "multiple brokers with spaces",
			brokers: "localhost:9092, localhost:9093",
			topic:   "distribution.results",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			producer, err := NewProducer(tt.brokers, tt.topic)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewProducer() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if producer != nil {
				producer.Close()
			}
		})
	}
}

func TestParseBrokers(t *testing.T) {
	got := ParseBrokers("localhost:9092, localhost:9093 ,localhost:9094")
	want := []string{"localhost:9092", "localhost:9093", "localhost:9094"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseBrokers() = %v, want %v", got, want)
	}
}

func TestBuildMessage(t *testing.T) {
	result := &events.DistributionResult{
		SchemaVersion: events.SchemaVersion,
		RunID:         "run-1",
		Row:           3,
		Recipients:    []string{"a@example.com"},
		Subject:       "Review ready",
		Status:        events.StatusSent,
		SentAt:        time.Now().UTC(),
	}

	msg, err := buildMessage(result)
	if err != nil {
		t.Fatalf("buildMessage() error: %v", err)
	}
	if string(msg.Key) != "run-1" {
		t.Errorf("message key = %q, want run ID", msg.Key)
	}

	var decoded events.DistributionResult
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("message value is not valid JSON: %v", err)
	}
	if decoded.Status != events.StatusSent || decoded.Row != 3 {
		t.Errorf("decoded event = %+v, want status SENT row 3", decoded)
	}

	var foundStatus bool
	for _, h := range msg.Headers {
		if h.Key == "status" && string(h.Value) == events.StatusSent {
			foundStatus = true
		}
	}
	if !foundStatus {
		t.Error("status header missing from message")
	}
}
