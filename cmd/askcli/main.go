package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type chatResponse struct {
	Answer           string   `json:"answer"`
	SourceTool       string   `json:"source_tool"`
	RetrievedContext []string `json:"retrieved_context"`
}

var defaultQueries = []string{
	"What is CS 201?",
	"Which courses cover Python?",
	"Job market for data scientists?",
	"Prerequisites for machine learning?",
}

func main() {
	baseURL := os.Getenv("ADVISOR_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	queries := defaultQueries
	if len(os.Args) > 1 {
		queries = []string{strings.Join(os.Args[1:], " ")}
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(2 * time.Minute).
		SetHeader("Content-Type", "application/json")

	if _, err := client.R().SetTimeout(5 * time.Second).Get("/"); err != nil {
		fmt.Printf("API server is not running at %s: %v\n", baseURL, err)
		os.Exit(1)
	}

	passed, total := 0, 0

	total++
	fmt.Println("1. Health check...")
	if checkJSON(client, "/health") {
		passed++
	}

	for i, q := range queries {
		total++
		fmt.Printf("\n%d. Testing: %s\n", i+2, q)
		if ask(client, q) {
			passed++
		}
	}

	total++
	fmt.Printf("\n%d. Stats...\n", len(queries)+2)
	if checkJSON(client, "/stats") {
		passed++
	}

	fmt.Printf("\nResults: %d/%d passed\n", passed, total)
	if passed != total {
		os.Exit(1)
	}
}

func checkJSON(client *resty.Client, path string) bool {
	resp, err := client.R().Get(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return false
	}
	fmt.Printf("Status: %d\n", resp.StatusCode())
	fmt.Printf("Response: %s\n", resp.String())
	return resp.IsSuccess()
}

func ask(client *resty.Client, query string) bool {
	var out chatResponse
	start := time.Now()
	resp, err := client.R().
		SetBody(map[string]string{"query": query}).
		SetResult(&out).
		Post("/chat")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return false
	}
	fmt.Printf("Status: %d (%s)\n", resp.StatusCode(), time.Since(start).Round(time.Millisecond))
	if !resp.IsSuccess() {
		fmt.Printf("Error: %s\n", resp.String())
		return false
	}

	fmt.Printf("Answer: %s\n", out.Answer)
	fmt.Printf("Source Tool: %s\n", out.SourceTool)
	fmt.Printf("Context Pieces: %d\n", len(out.RetrievedContext))
	if len(out.RetrievedContext) > 0 {
		first, _ := json.Marshal(preview(out.RetrievedContext[0], 120))
		fmt.Printf("First Context: %s\n", first)
	}
	return true
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
