package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CheckConservation verifies the settlement conservation property from
// the journal: for every event, the winners' payouts plus the organizer
// reward and platform fee never exceed the pot deposited by votes, net of
// early trust-burn unlocks.
func CheckConservation(result *Result) error {
	type pot struct {
		in   int64 // votes minus burns
		out  int64 // paid claims
		fees int64 // org reward + platform fee actually collected
	}
	pots := map[string]*pot{}

	get := func(eventID string) *pot {
		p, ok := pots[eventID]
		if !ok {
			p = &pot{}
			pots[eventID] = p
		}
		return p
	}

	for _, entry := range result.Journal {
		payload, err := decodePayload(entry.Payload)
		if err != nil {
			return fmt.Errorf("journal seq %d: %w", entry.Seq, err)
		}
		switch entry.Op {
		case "vote":
			get(entry.EventID).in += payload["amount"]
		case "burn":
			get(entry.EventID).in -= payload["unlocked"]
		case "claim":
			get(entry.EventID).out += payload["paid"]
		case "event.settle":
			get(entry.EventID).fees += payload["org_reward"] + payload["platform_fee"]
		}
	}

	for eventID, p := range pots {
		if p.out+p.fees > p.in {
			return fmt.Errorf("event %s: payouts %d + fees %d exceed pot %d", eventID, p.out, p.fees, p.in)
		}
	}
	return nil
}

// decodePayload parses a canonical JSON journal payload, keeping integer
// fields exact and ignoring everything else.
func decodePayload(payload string) (map[string]int64, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	out := map[string]int64{}
	for k, v := range raw {
		if n, ok := v.(json.Number); ok {
			i, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("payload field %q: %w", k, err)
			}
			out[k] = i
		}
	}
	return out, nil
}
