package natsobserver

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"contextualplanner/internal/fact"
	"contextualplanner/internal/observer"
	"contextualplanner/internal/ontology"
)

// TestPublisherAttachRepublishesOntoNATS connects to a real broker, the
// same boundary the teacher draws around its own NATS-dependent code
// (internal/ai/gateway/gateway_test.go): skipped unless TEST_INTEGRATION
// is set, since the pack carries no embedded-broker test helper.
func TestPublisherAttachRepublishesOntoNATS(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") != "true" {
		t.Skip("Skipping integration test. Set TEST_INTEGRATION=true to run.")
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}
	nc, err := nats.Connect(natsURL)
	require.NoError(t, err)
	defer nc.Close()

	sub, err := nc.SubscribeSync(SubjectFactsChanged)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	p := New(nc, zerolog.Nop())
	hub := observer.New()
	p.Attach(hub)
	defer p.Close()

	pred := &ontology.Predicate{Name: "has_axe"}
	someFact := fact.Fact{Predicate: pred}
	hub.FireFactsChanged(map[string]fact.Fact{"x": someFact})

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &out))
}
