package commands

import (
	"context"
	"strings"

	"github.com/park285/chr0n-bot/internal/util"
)

func (b *Bot) help(_ context.Context, inv *Invocation) ([]string, error) {
	verbs := b.router.Verbs()
	listed := make([]string, len(verbs))
	for i, v := range verbs {
		listed[i] = b.router.Prefix() + v
	}
	return []string{b.text("info.help", map[string]any{"Nick": inv.Nick, "Commands": strings.Join(listed, ", ")})}, nil
}

func (b *Bot) ping(_ context.Context, inv *Invocation) ([]string, error) {
	return []string{b.text("info.pong", map[string]any{"Nick": inv.Nick})}, nil
}

func (b *Bot) about(_ context.Context, inv *Invocation) ([]string, error) {
	return []string{b.text("info.about", map[string]any{"Nick": inv.Nick, "Channel": inv.Target})}, nil
}

func (b *Bot) uptime(_ context.Context, inv *Invocation) ([]string, error) {
	return []string{b.text("info.uptime", map[string]any{"Nick": inv.Nick, "Uptime": util.Uptime(inv.Now.Sub(b.Started))})}, nil
}

func (b *Bot) gentoo(_ context.Context, inv *Invocation) ([]string, error) {
	line := b.Catalog.Pick("gentoo", b.Intn)
	return []string{b.text("info.gentoo", map[string]any{"Nick": inv.Nick, "Line": line})}, nil
}

// countdown answers the "time" verb against the configured target date.
func (b *Bot) countdown(_ context.Context, inv *Invocation) ([]string, error) {
	data := map[string]any{"Nick": inv.Nick, "Label": util.DateLabel(b.Countdown)}
	if !inv.Now.Before(b.Countdown) {
		return []string{b.text("countdown.passed", data)}, nil
	}
	remaining := util.Countdown(int64(b.Countdown.Sub(inv.Now).Seconds()))
	if remaining == "" {
		return []string{b.text("countdown.here", data)}, nil
	}
	data["Remaining"] = remaining
	return []string{b.text("countdown.remaining", data)}, nil
}
