// Command dispatchwatch tails the advisory dispatch topic and validates each
// event a downstream dialer would receive: required fields, header presence
// and key/payload agreement. It is the quickest way to check what the service
// is actually publishing.
//
// Usage:
//
//	go run ./cmd/dispatchwatch -brokers localhost:9092 -topic advisory-dispatch
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/sabihealth/advisory-service/internal/domain"
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	topic := flag.String("topic", "advisory-dispatch", "dispatch topic to tail")
	group := flag.String("group", "", "consumer group id (default: ephemeral, reads from the start)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if code := run(ctx, strings.Split(*brokers, ","), *topic, *group); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, brokers []string, topic, group string) int {
	cfg := kafkago.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		StartOffset: kafkago.FirstOffset,
	}
	if group != "" {
		cfg.GroupID = group
	} else {
		cfg.GroupID = fmt.Sprintf("dispatchwatch-%d", time.Now().UnixNano())
	}

	reader := kafkago.NewReader(cfg)
	defer reader.Close()

	fmt.Printf("tailing %s on %s\n", topic, strings.Join(brokers, ","))

	seen, invalid := 0, 0
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			return 1
		}

		seen++
		if errs := validate(msg); len(errs) > 0 {
			invalid++
			fmt.Printf("[%d] INVALID key=%s\n", seen, msg.Key)
			for _, e := range errs {
				fmt.Printf("      %s\n", e)
			}
			continue
		}

		var d domain.AdvisoryDispatch
		_ = json.Unmarshal(msg.Value, &d)
		fmt.Printf("[%d] %s risk=%s lga=%s factors=%s phone=%s\n",
			seen, d.CallID, d.RiskLevel, d.LGA, joinFactors(d.Factors), d.Phone)
	}

	fmt.Printf("\n%d event(s), %d invalid\n", seen, invalid)
	if invalid > 0 {
		return 1
	}
	return 0
}

// validate checks the contract the dialer depends on.
func validate(msg kafkago.Message) []string {
	var errs []string

	var d domain.AdvisoryDispatch
	if err := json.Unmarshal(msg.Value, &d); err != nil {
		return []string{fmt.Sprintf("payload is not valid JSON: %v", err)}
	}

	if d.CallID == "" {
		errs = append(errs, "call_id is empty")
	} else if string(msg.Key) != d.CallID {
		errs = append(errs, fmt.Sprintf("key %q does not match call_id %q", msg.Key, d.CallID))
	}
	if d.UserID == "" {
		errs = append(errs, "user_id is empty")
	}
	if d.RiskLevel != domain.RiskHigh {
		errs = append(errs, fmt.Sprintf("risk_level is %q, only HIGH outcomes are dispatched", d.RiskLevel))
	}
	if len(d.Factors) == 0 {
		errs = append(errs, "factors is empty")
	}
	if d.Script == "" {
		errs = append(errs, "script is empty")
	}
	if d.AudioURL == "" {
		errs = append(errs, "audio_url is empty")
	}
	if d.DispatchAt.IsZero() {
		errs = append(errs, "dispatch_at is zero")
	}

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["risk_level"] == "" {
		errs = append(errs, "risk_level header missing")
	}
	if _, err := time.Parse(time.RFC3339, headers["dispatch_at"]); err != nil {
		errs = append(errs, "dispatch_at header is not RFC3339")
	}

	return errs
}

func joinFactors(factors []domain.RiskFactor) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}
