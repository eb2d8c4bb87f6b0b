// Command seed registers a set of demo users against a running advisory
// service and optionally triggers an evaluation for each, which is handy for
// exercising the pipeline and dashboard locally.
//
// Usage:
//
//	go run ./cmd/seed -addr http://localhost:8080 -call
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

type demoUser struct {
	Name  string `json:"name"`
	LGA   string `json:"lga"`
	Phone string `json:"phone"`
}

var demoUsers = []demoUser{
	{Name: "Amina", LGA: "Kano", Phone: "+2348031112222"},
	{Name: "Bola", LGA: "Lagos", Phone: "+2348033334444"},
	{Name: "Chidi", LGA: "Abuja", Phone: "+2348035556666"},
	{Name: "Ngozi", LGA: "Benue", Phone: "+2348037778888"},
	{Name: "Musa", LGA: "Sokoto", Phone: "+2348039990000"},
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "base URL of the advisory service")
	call := flag.Bool("call", false, "trigger an evaluation for each seeded user")
	flag.Parse()

	if code := run(*addr, *call); code != 0 {
		os.Exit(code)
	}
}

func run(addr string, call bool) int {
	client := &http.Client{Timeout: 30 * time.Second}

	failures := 0
	for _, u := range demoUsers {
		id, err := register(client, addr, u)
		if err != nil {
			fmt.Fprintf(os.Stderr, "register %s: %v\n", u.Name, err)
			failures++
			continue
		}
		fmt.Printf("registered %-6s (%s) id=%s\n", u.Name, u.LGA, id)

		if !call {
			continue
		}
		status, err := callUser(client, addr, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "call-user %s: %v\n", u.Name, err)
			failures++
			continue
		}
		fmt.Printf("  evaluation: %s\n", status)
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d request(s) failed\n", failures)
		return 1
	}
	return 0
}

func register(client *http.Client, addr string, u demoUser) (string, error) {
	payload, err := json.Marshal(u)
	if err != nil {
		return "", err
	}

	resp, err := client.Post(addr+"/register", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func callUser(client *http.Client, addr, id string) (string, error) {
	resp, err := client.Post(addr+"/call-user/"+id, "application/json", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var outcome struct {
		Status string `json:"status"`
		Risk   string `json:"risk"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return "", err
	}
	if outcome.Risk != "" {
		return fmt.Sprintf("%s (risk %s)", outcome.Status, outcome.Risk), nil
	}
	return outcome.Status, nil
}
