package desqueeze

import (
	"fmt"
	"strings"
)

// EventKind identifies what happened during a run.
type EventKind int

const (
	EventTool EventKind = iota
	EventOutputRotated
	EventOutputDir
	EventFound
	EventProgress
	EventImport
	EventLens
	EventDesqueeze
	EventCopy
	EventSaved
	EventWarning
	EventFileFailed
	EventStopped
	EventCancelled
	EventDone
)

// Level is how a front end should present an event.
type Level int

const (
	LevelInfo Level = iota
	LevelNotice
	LevelWarn
	LevelError
	LevelSuccess
)

// Event is published by Batch and Processor as a run advances. Index is zero based.
type Event struct {
	Kind    EventKind
	Index   int
	Total   int
	File    string
	Path    string
	Lens    string
	Scale   string
	Widened bool
	Message string
	Err     error
	Summary *Summary
}

// Level classifies e for coloring.
func (e Event) Level() Level {
	switch e.Kind {
	case EventOutputRotated:
		return LevelNotice
	case EventWarning:
		return LevelWarn
	case EventFileFailed, EventStopped, EventCancelled:
		return LevelError
	case EventDone:
		if e.Summary != nil && e.Summary.Failed > 0 {
			return LevelError
		}
		return LevelSuccess
	}
	return LevelInfo
}

// Fraction is the progress bar position for the event: index/total while files are being
// processed, 1 once the run is done.
func (e Event) Fraction() float64 {
	switch {
	case e.Kind == EventDone:
		return 1
	case e.Total <= 0:
		return 0
	}
	return float64(e.Index) / float64(e.Total)
}

// Reporter receives run events. Implementations must not block for long: the batch waits.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) { f(e) }

type discard struct{}

func (discard) Report(Event) {}

const rule = "=================================================="

// FormatEvent renders the console/log text for e. Progress events have no text.
func FormatEvent(e Event) string {
	switch e.Kind {
	case EventTool:
		return "Using exiftool: " + e.Path
	case EventOutputRotated:
		return "Output 文件夹有东西. 创建新文件夹: " + e.File
	case EventOutputDir:
		return "Output directory: " + e.Path
	case EventFound:
		return fmt.Sprintf("Found %d DNG file(s) to process\n", e.Total)
	case EventImport:
		return "导入: " + e.File
	case EventLens:
		return "  镜头: " + e.Lens
	case EventDesqueeze:
		return fmt.Sprintf("  ➲是电影镜头——>启用反压缩anamorphic desqueeze (%sx stretch)", horizontal(e.Scale))
	case EventCopy:
		return "  ▶▶不是电影镜头——>不启用反压缩（anamorphic desqueeze） 直接复制文件"
	case EventSaved:
		if e.Widened {
			return "✓ 保存,并设为可读写: " + e.File
		}
		if e.Err != nil {
			return "✓ 保存,但无法设为可读写: " + e.File
		}
		return "✓ 保存: " + e.File
	case EventWarning:
		if e.Err != nil {
			return fmt.Sprintf("Warning: %s: %v", e.Message, e.Err)
		}
		return "Warning: " + e.Message
	case EventFileFailed:
		return fmt.Sprintf("✗ Error processing %s: %v", e.File, e.Err)
	case EventStopped:
		return "Stopping due to error with file: " + e.File
	case EventCancelled:
		return "Cancelled before " + e.File
	case EventDone:
		return formatSummary(e.Summary)
	}
	return ""
}

func formatSummary(s *Summary) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n" + rule + "\n")
	b.WriteString("完成!\n")
	fmt.Fprintf(&b, "导出: %d 张(s)\n", s.Succeeded)
	if s.Failed > 0 {
		fmt.Fprintf(&b, "Errors encountered: %d file(s)", s.Failed)
	} else {
		b.WriteString("All files processed successfully!")
	}
	return b.String()
}
