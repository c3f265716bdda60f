package cmd

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mabhi256/hangdiag/internal/splist"
	"github.com/mabhi256/hangdiag/utils"
)

// progressLog prints phase changes of every dump to w with the elapsed time.
// Per-thread updates are not printed.
type progressLog struct {
	mu    sync.Mutex
	w     io.Writer
	start time.Time
}

func newProgressLog(w io.Writer) *progressLog {
	return &progressLog{w: w, start: time.Now()}
}

func (p *progressLog) Log(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.start)
	mins := int(elapsed.Minutes())
	secs := int(elapsed.Seconds()) % 60
	fmt.Fprintf(p.w, "[%02d:%02d] %s\n", mins, secs, fmt.Sprintf(format, args...))
}

// Done logs the total run time.
func (p *progressLog) Done(dumps int) {
	p.Log("analyzed %d dump(s) in %s", dumps, utils.FormatDuration(time.Since(p.start)))
}

func (p *progressLog) For(dump string) splist.Progress {
	return &dumpProgress{log: p, dump: dump}
}

type dumpProgress struct {
	log        *progressLog
	dump       string
	overallMax int
	threads    int
}

func (d *dumpProgress) SetOverallRange(min, max int) {
	d.overallMax = max
}

func (d *dumpProgress) SetOverall(position int, status string) {
	if d.threads > 0 && position == d.overallMax {
		d.log.Log("%s: [%d/%d] %s (%d threads)", d.dump, position, d.overallMax, status, d.threads)
		return
	}
	d.log.Log("%s: [%d/%d] %s", d.dump, position, d.overallMax, status)
}

func (d *dumpProgress) SetCurrentRange(min, max int) {
	d.threads = max - min
}

func (d *dumpProgress) SetCurrent(int, string) {}
