package main

import (
	"fmt"
	"io"

	"dng-desqueeze/desqueeze"
	"github.com/fatih/color"
	"github.com/k0kubun/go-ansi"
	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"
)

var (
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
)

// console renders batch events to a terminal.
type console struct {
	out      io.Writer
	progress bool
	bar      *progressbar.ProgressBar
}

func newConsole(out io.Writer, progress bool) *console {
	return &console{out: out, progress: progress}
}

func (c *console) colorize() colorstring.Colorize {
	return colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Reset:   true,
		Disable: color.NoColor,
	}
}

func (c *console) Report(e desqueeze.Event) {
	switch e.Kind {
	case desqueeze.EventProgress:
		return
	case desqueeze.EventFound:
		if c.progress {
			c.bar = newBar(e.Total)
		}
	case desqueeze.EventSaved:
		defer c.advance()
	case desqueeze.EventDone:
		c.summary(e.Summary)
		return
	}

	text := desqueeze.FormatEvent(e)
	if text == "" {
		return
	}
	switch e.Level() {
	case desqueeze.LevelNotice:
		yellow.Fprintln(c.out, text)
	case desqueeze.LevelWarn, desqueeze.LevelError:
		red.Fprintln(c.out, text)
	default:
		fmt.Fprintln(c.out, text)
	}
}

func (c *console) advance() {
	if c.bar != nil {
		c.bar.Add(1)
	}
}

func (c *console) summary(s *desqueeze.Summary) {
	if s == nil {
		return
	}
	cs := c.colorize()

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "==================================================")
	fmt.Fprintln(c.out, cs.Color("[green]完成!"))
	fmt.Fprintln(c.out, cs.Color(fmt.Sprintf("[green]导出: %d 张(s)", s.Succeeded)))
	if s.Failed > 0 {
		fmt.Fprintln(c.out, cs.Color(fmt.Sprintf("[red]Errors encountered: %d file(s)", s.Failed)))
	} else {
		fmt.Fprintln(c.out, cs.Color("[green]All files processed successfully!"))
	}
}

func newBar(total int) *progressbar.ProgressBar {
	w := ansi.NewAnsiStderr()
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(!color.NoColor),
		progressbar.OptionSetWidth(15),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan][DNG][reset] De-squeeze"),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
