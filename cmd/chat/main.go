package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "AEON server URL")
	user := flag.String("user", "cli-user", "User name")
	flag.Parse()

	fmt.Println("AEON CLI")
	fmt.Printf("Server: %s | User: %s\n", *server, *user)
	fmt.Println("Type 'exit' or 'quit' to leave. Plain text runs as a goal.")
	fmt.Println("Commands: /status, /protocols, /memory, /run, /update <emotion> <intent>")
	fmt.Println("---")

	fetchStatus(*server)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Bye!")
			return
		}

		switch {
		case input == "/status":
			fetchStatus(*server)
		case input == "/protocols":
			fetchProtocols(*server)
		case input == "/memory":
			fetchMemory(*server)
		case input == "/run":
			runAgent(*server)
		case strings.HasPrefix(input, "/update"):
			updateContext(*server, input)
		default:
			sendGoal(*server, *user, input)
		}
	}
}

func fetchStatus(server string) {
	var health struct {
		Status    string         `json:"status"`
		Cognition string         `json:"cognition"`
		Protocols int            `json:"protocols"`
		Episodes  int            `json:"episodes"`
		Counters  map[string]int `json:"counters"`
	}
	if !getJSON(server+"/system/health", &health) {
		return
	}
	fmt.Printf("Status: %s | Cognition: %s | Protocols: %d | Episodes: %d\n",
		health.Status, health.Cognition, health.Protocols, health.Episodes)
	fmt.Printf("Goals: %d | Learning cycles: %d | Mutations: %d\n",
		health.Counters["goals_completed"],
		health.Counters["learning_cycles"],
		health.Counters["protocol_mutations"])
}

func fetchProtocols(server string) {
	var protocols []struct {
		Name       string  `json:"name"`
		Reward     float64 `json:"reward"`
		Executions int     `json:"executions"`
		Mutant     bool    `json:"mutant"`
	}
	if !getJSON(server+"/protocols", &protocols) {
		return
	}
	fmt.Println("Protocols:")
	for _, p := range protocols {
		marker := ""
		if p.Mutant {
			marker = " (mutant)"
		}
		fmt.Printf("  %-20s reward=%.2f runs=%d%s\n", p.Name, p.Reward, p.Executions, marker)
	}
}

func fetchMemory(server string) {
	var dump struct {
		Episodic []struct {
			Action   string `json:"action"`
			Protocol string `json:"protocol"`
		} `json:"episodic"`
		Semantic []struct {
			Concept string `json:"concept"`
		} `json:"semantic"`
	}
	if !getJSON(server+"/memory", &dump) {
		return
	}
	fmt.Printf("Episodes (%d):\n", len(dump.Episodic))
	for _, ep := range dump.Episodic {
		fmt.Printf("  [%s] %s\n", ep.Protocol, ep.Action)
	}
	fmt.Printf("Concepts (%d):\n", len(dump.Semantic))
	for _, e := range dump.Semantic {
		fmt.Printf("  %s\n", e.Concept)
	}
}

func runAgent(server string) {
	var result struct {
		Thought  string   `json:"thought"`
		Protocol string   `json:"protocol"`
		Action   string   `json:"action"`
		Reward   *float64 `json:"reward"`
	}
	if !postJSON(server+"/agent/run", map[string]string{}, &result) {
		return
	}
	fmt.Printf("\033[90m%s\033[0m\n", result.Thought)
	if result.Reward != nil {
		fmt.Printf("\033[36m[%s r=%.2f]\033[0m %s\n", result.Protocol, *result.Reward, result.Action)
	} else {
		fmt.Printf("\033[36m[%s]\033[0m %s\n", result.Protocol, result.Action)
	}
}

func updateContext(server, input string) {
	fields := strings.Fields(input)
	if len(fields) < 3 {
		printError("usage: /update <emotion> <intent>")
		return
	}
	var resp struct {
		Status string `json:"status"`
	}
	body := map[string]string{"emotion": fields[1], "intent": strings.Join(fields[2:], " ")}
	if postJSON(server+"/context/update", body, &resp) {
		fmt.Println(resp.Status)
	}
}

func sendGoal(server, user, content string) {
	body, _ := json.Marshal(map[string]string{
		"user_id":   user,
		"user_name": user,
		"content":   content,
	})

	client := &http.Client{Timeout: 65 * time.Second}
	resp, err := client.Post(server+"/gateway/rest/message", "application/json", bytes.NewReader(body))
	if err != nil {
		printError("Request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		printError("Server error (%d): %s", resp.StatusCode, string(data))
		return
	}

	var reply struct {
		Content string `json:"content"`
		Goal    *struct {
			Goal  string `json:"goal"`
			Steps []struct {
				Step   string `json:"step"`
				Result *struct {
					Protocol string `json:"protocol"`
					Action   string `json:"action"`
				} `json:"result"`
			} `json:"steps"`
			Completed bool `json:"completed"`
		} `json:"goal"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		printError("Failed to parse response: %v", err)
		return
	}
	if reply.Goal == nil {
		fmt.Println(reply.Content)
		return
	}

	fmt.Printf("Goal: %s\n", reply.Goal.Goal)
	for i, step := range reply.Goal.Steps {
		if step.Result == nil {
			fmt.Printf("  %d. %s: \033[31mfailed\033[0m\n", i+1, step.Step)
			continue
		}
		fmt.Printf("  %d. %s \033[36m[%s]\033[0m %s\n",
			i+1, step.Step, step.Result.Protocol, step.Result.Action)
	}
	if reply.Goal.Completed {
		fmt.Println("\033[32mCompleted.\033[0m")
	} else {
		fmt.Println("\033[33mFinished with failures.\033[0m")
	}
}

func getJSON(url string, out interface{}) bool {
	resp, err := http.Get(url)
	if err != nil {
		printError("Request failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		printError("Failed to parse response: %v", err)
		return false
	}
	return true
}

func postJSON(url string, body, out interface{}) bool {
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		printError("Request failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		printError("Failed to parse response: %v", err)
		return false
	}
	return true
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\033[31m"+format+"\033[0m\n", args...)
}
