package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophguard/internal/logging"
)

// gooseLogger routes goose output into the structured logger.
type gooseLogger struct {
	l logging.Logger
}

func (g *gooseLogger) Printf(format string, v ...any) {
	g.l.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g *gooseLogger) Fatalf(format string, v ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	g.l.Error(context.Background(), msg)
	panic(msg)
}
