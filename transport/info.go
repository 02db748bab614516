package transport

import (
	"crypto/tls"
	"net/http/httptrace"
	"time"
)

// Info is the telemetry of one completed exchange.
type Info struct {
	StatusCode    int
	ContentType   string
	HeaderSize    int
	EffectiveURL  string
	RedirectCount int
	SizeDownload  int64

	NameLookup    time.Duration
	Connect       time.Duration
	TLSHandshake  time.Duration
	StartTransfer time.Duration
	Total         time.Duration
}

func newTLSConfig() *tls.Config {
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// timer collects phase durations through an [httptrace.ClientTrace].
// Each phase is measured from the start of the exchange.
type timer struct {
	start time.Time
	info  *Info

	dnsStart, connStart, tlsStart time.Time
}

func newTimer(info *Info) *timer {
	return &timer{start: time.Now(), info: info}
}

func (tm *timer) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			tm.dnsStart = time.Now()
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			tm.info.NameLookup = time.Since(tm.dnsStart)
		},
		ConnectStart: func(string, string) {
			tm.connStart = time.Now()
		},
		ConnectDone: func(_, _ string, err error) {
			if err == nil {
				tm.info.Connect = time.Since(tm.connStart)
			}
		},
		TLSHandshakeStart: func() {
			tm.tlsStart = time.Now()
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err == nil {
				tm.info.TLSHandshake = time.Since(tm.tlsStart)
			}
		},
		GotFirstResponseByte: func() {
			tm.info.StartTransfer = time.Since(tm.start)
		},
	}
}

func (tm *timer) done() {
	tm.info.Total = time.Since(tm.start)
}
