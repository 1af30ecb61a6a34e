package service

import (
	"maps"
	"runtime"
	"strconv"
	"time"

	"github.com/jose-valero/tempvoice-bot/internal/domain"
)

const nowLayout = "02.January 2006 03:04:05"

// defaultReplacements están en todos los mensajes.
func defaultReplacements(now time.Time) map[string]string {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return map[string]string{
		"now":       now.Format(nowLayout),
		"mem_usage": strconv.FormatUint(ms.HeapAlloc/1024/1024, 10) + "MB",
	}
}

func render(tmpl string, repl map[string]string, now time.Time) string {
	all := defaultReplacements(now)
	maps.Copy(all, repl)
	return domain.Render(tmpl, all)
}
