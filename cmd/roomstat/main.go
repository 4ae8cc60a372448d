// Command roomstat prints a quick, human-readable summary of the rooms on a
// running server. It queries the server's /api/rooms endpoint and reports
// per-room status, occupancy, and age, plus aggregate counts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

// RoomSummary mirrors the /api/rooms entry shape.
type RoomSummary struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	Players    int       `json:"players"`
	Spectators int       `json:"spectators"`
	CreatedAt  time.Time `json:"createdAt"`
}

// listing mirrors the /api/rooms response envelope.
type listing struct {
	Count int           `json:"count"`
	Rooms []RoomSummary `json:"rooms"`
}

func main() {
	addr := flag.String("addr", "http://localhost:3000", "Base URL of the server")
	flag.Parse()

	rooms, err := fetchRooms(*addr)
	if err != nil {
		fmt.Printf("Error fetching rooms: %v\n", err)
		os.Exit(1)
	}

	report(rooms, time.Now())
}

func fetchRooms(baseURL string) ([]RoomSummary, error) {
	resp, err := http.Get(baseURL + "/api/rooms")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	var body listing
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return body.Rooms, nil
}

func report(rooms []RoomSummary, now time.Time) {
	if len(rooms) == 0 {
		fmt.Println("No live rooms")
		return
	}

	byStatus := map[string]int{}
	players := 0
	spectators := 0

	fmt.Printf("%-20s %-10s %-8s %-11s %s\n", "ROOM", "STATUS", "PLAYERS", "SPECTATORS", "AGE")
	for _, rm := range rooms {
		byStatus[rm.Status]++
		players += rm.Players
		spectators += rm.Spectators
		fmt.Printf("%-20s %-10s %-8d %-11d %s\n",
			rm.ID, rm.Status, rm.Players, rm.Spectators, age(rm.CreatedAt, now))
	}

	fmt.Printf("\n%d rooms (%d waiting, %d playing, %d finished), %d players, %d spectators\n",
		len(rooms), byStatus["waiting"], byStatus["playing"], byStatus["finished"],
		players, spectators)
}

// age renders how long ago t was, coarsely.
func age(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
