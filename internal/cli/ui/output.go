package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
	"github.com/dvanosdol88/ai-assistants/internal/core/poller"
)

// Stdout and Stderr are where all CLI output goes. Tests replace them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// Print functions for consistent output

func Error(format string, args ...interface{}) {
	fmt.Fprintf(Stderr, "%s %s\n", ErrorIcon, ErrorStyle.Render(fmt.Sprintf(format, args...)))
}

func Success(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, "%s %s\n", SuccessIcon, SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func Info(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, "%s %s\n", InfoIcon, InfoStyle.Render(fmt.Sprintf(format, args...)))
}

func Warning(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, "%s %s\n", WarningIcon, WarningStyle.Render(fmt.Sprintf(format, args...)))
}

// OutputLine prints one formatted line
func OutputLine(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, format+"\n", args...)
}

// PrintKeyValue prints a dimmed key followed by its value
func PrintKeyValue(key string, value interface{}) {
	fmt.Fprintf(Stdout, "  %s %v\n", DimStyle.Render(key+":"), value)
}

// PrintSummary reports the outcome of one poller tick
func PrintSummary(s poller.Summary) {
	if s.Idle {
		Info("No messages to process")
		return
	}

	if s.Processed > 0 && s.Rejected == 0 {
		Success("Message processed successfully")
	}
	if s.Rejected > 0 {
		Warning("%d message(s) rejected", s.Rejected)
	}

	PrintKeyValue("Processed", s.Processed)
	PrintKeyValue("Rejected", s.Rejected)
	if s.Recovered > 0 {
		PrintKeyValue("Recovered", s.Recovered)
	}
	if s.Deferred > 0 {
		PrintKeyValue("Deferred replies", s.Deferred)
	}
	if s.Halted > 0 {
		PrintKeyValue("Halted mailboxes", s.Halted)
	}
}

// PrintPending shows the raw content of a pending mailbox
func PrintPending(a mailbox.Address, raw []byte) {
	fmt.Fprintf(Stdout, "%s %s\n", MailIcon, BoldStyle.Render(a.Name()))
	for _, line := range strings.Split(strings.TrimRight(string(raw), "\n"), "\n") {
		fmt.Fprintf(Stdout, "   %s\n", line)
	}
	fmt.Fprintln(Stdout)
}

// PrintArchiveList displays archived messages using a table
func PrintArchiveList(entries []mailbox.ArchiveEntry) {
	if len(entries) == 0 {
		Info("No archived messages")
		return
	}

	tbl := NewTable("ID", "RECIPIENT", "SIZE", "ARCHIVED")
	for _, e := range entries {
		tbl.AddRow(e.Key, e.Recipient, FormatSize(e.Size), FormatTime(e.ModTime))
	}

	printSection(ArchiveIcon, "Archive", len(entries), tbl)
}

// PrintRejectedList displays rejection records using a table
func PrintRejectedList(records []mailbox.Rejection) {
	if len(records) == 0 {
		Info("No rejected messages")
		return
	}

	tbl := NewTable("ID", "MAILBOX", "STAGE", "REASON", "REJECTED")
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = "-"
		}
		tbl.AddRow(id, r.Mailbox, StageLabel(r.Stage), r.Reason, FormatTime(r.RejectedAt))
	}

	printSection(RejectedIcon, "Rejected", len(records), tbl)
}

// FormatDuration formats a duration into a human-readable string
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "< 1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// FormatSize formats a byte count using binary units
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%dB", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatTime formats a time for display
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		minutes := int(diff.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
