// Command inspect dumps recent messages and the unread backlog from the
// portal database, for debugging a running instance without a client.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"task-portal/storage"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type config struct {
	DBPath string `envconfig:"DB_PATH" default:"portal.db"`
}

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	dbPath := flag.String("db", cfg.DBPath, "Path to SQLite DB")
	limit := flag.Int("limit", 20, "Number of recent messages to show")
	flag.Parse()

	db, err := storage.Open(*dbPath)
	if err != nil {
		log.Fatal("Error while opening SQLite: ", err)
	}
	defer db.Close()

	if err := printMessages(db, *limit); err != nil {
		log.Fatal(err)
	}
	if err := printUnread(db); err != nil {
		log.Fatal(err)
	}
}

func printMessages(db *sql.DB, limit int) error {
	rows, err := db.Query(`
		SELECT m.id, s.name, r.name, m.message, m.created_at, m.is_read
		FROM messages m
		JOIN users s ON s.id = m.sender_id
		JOIN users r ON r.id = m.receiver_id
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	color.Bold.Println("Recent messages")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "From", "To", "Message", "At", "Read"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for rows.Next() {
		var (
			id               int64
			sender, receiver string
			body             string
			at               time.Time
			isRead           bool
		)
		if err := rows.Scan(&id, &sender, &receiver, &body, &at, &isRead); err != nil {
			return err
		}

		// Truncate long bodies for readability
		if len(body) > 48 {
			body = body[:48] + "..."
		}
		read := color.Green.Sprint("yes")
		if !isRead {
			read = color.Red.Sprint("no")
		}
		table.Append([]string{
			fmt.Sprintf("%d", id),
			sender,
			receiver,
			body,
			at.Format("15:04:05"),
			read,
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	table.Render()
	return nil
}

func printUnread(db *sql.DB) error {
	rows, err := db.Query(`
		SELECT r.name, s.name, COUNT(*)
		FROM messages m
		JOIN users r ON r.id = m.receiver_id
		JOIN users s ON s.id = m.sender_id
		WHERE m.is_read = 0
		GROUP BY m.receiver_id, m.sender_id
		ORDER BY r.name, s.name`)
	if err != nil {
		return err
	}
	defer rows.Close()

	color.Bold.Println("\nUnread backlog")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Receiver", "Sender", "Unread"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	empty := true
	for rows.Next() {
		var receiver, sender string
		var count int64
		if err := rows.Scan(&receiver, &sender, &count); err != nil {
			return err
		}
		empty = false
		table.Append([]string{receiver, sender, fmt.Sprintf("%d", count)})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if empty {
		color.Green.Println("Nothing unread")
		return nil
	}
	table.Render()
	return nil
}
