package utils

import (
	"context"
	"crypto/rand"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"mailbeacon/config"
)

// Existence is the tri-state outcome of mailbox probing. It is deliberately
// not a nullable bool: "not yet checked" and "inconclusive" must never be
// conflated with a real negative.
type Existence int

const (
	ExistsUnknown Existence = iota
	ExistsYes
	ExistsNo
)

func (e Existence) String() string {
	switch e {
	case ExistsYes:
		return "true"
	case ExistsNo:
		return "false"
	default:
		return "unknown"
	}
}

// Bool maps the tri-state onto the API's nullable verification_status field.
func (e Existence) Bool() *bool {
	switch e {
	case ExistsYes:
		v := true
		return &v
	case ExistsNo:
		v := false
		return &v
	default:
		return nil
	}
}

// VerificationOutcome is the final result of probing one address.
type VerificationOutcome struct {
	Exists       Existence `json:"exists"`
	Message      string    `json:"message"`
	IsCatchAll   bool      `json:"is_catch_all"`
	AttemptsUsed int       `json:"attempts_used"`
}

// probeState enumerates the SMTP handshake steps so the transition logic is
// explicit and testable rather than buried in nested conditionals.
type probeState int

const (
	stateConnect probeState = iota
	stateGreet
	stateMailFrom
	stateRcptTarget
	stateRcptCatchAll
	stateClose
)

// attemptResult is the outcome of a single probe attempt.
type attemptResult struct {
	exists     Existence
	message    string
	isCatchAll bool
	retryable  bool
	// serverFailed marks connection-level failures (connect/EHLO/MAIL FROM)
	// that should advance to the next mail server rather than finish.
	serverFailed bool
}

// SmtpVerifier probes whether a mailbox exists by driving the SMTP handshake
// up to RCPT TO, without ever sending a message. Stateless across candidates:
// every attempt opens a fresh session and closes it with QUIT.
type SmtpVerifier struct {
	settings config.Settings
	sleeper  Sleeper
	log      *logrus.Entry
}

func NewSmtpVerifier(settings config.Settings, sleeper Sleeper) *SmtpVerifier {
	if sleeper == nil {
		sleeper = newRandomSleeper(settings.MinSleepBetweenRequests, settings.MaxSleepBetweenRequests)
	}
	return &SmtpVerifier{
		settings: settings,
		sleeper:  sleeper,
		log:      logrus.WithField("component", "smtp"),
	}
}

// Verify probes email against the given mail servers, retrying inconclusive
// outcomes (4xx, timeouts, detected catch-alls) up to MaxVerificationAttempts
// with increasing backoff. The returned outcome is the last attempt's result.
func (v *SmtpVerifier) Verify(ctx context.Context, email string, servers []MailServer) VerificationOutcome {
	domain := domainPart(email)
	outcome := VerificationOutcome{
		Exists:  ExistsUnknown,
		Message: "verification not attempted",
	}

	maxAttempts := v.settings.MaxVerificationAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			outcome.Message = "verification aborted: " + ctx.Err().Error()
			return outcome
		}

		res := v.attempt(ctx, email, domain, servers)
		outcome = VerificationOutcome{
			Exists:       res.exists,
			Message:      res.message,
			IsCatchAll:   res.isCatchAll,
			AttemptsUsed: attempt,
		}

		v.log.WithFields(logrus.Fields{
			"email":     email,
			"attempt":   attempt,
			"exists":    res.exists.String(),
			"catch_all": res.isCatchAll,
		}).Debug(res.message)

		if !res.retryable {
			break
		}
		if attempt < maxAttempts {
			v.sleeper.Backoff(ctx, attempt)
		}
	}
	return outcome
}

// attempt tries the servers in preference order until one yields a result
// for RCPT TO, or the list is exhausted.
func (v *SmtpVerifier) attempt(ctx context.Context, email, domain string, servers []MailServer) attemptResult {
	for _, server := range servers {
		if ctx.Err() != nil {
			return attemptResult{exists: ExistsUnknown, message: "verification aborted: " + ctx.Err().Error()}
		}
		res := v.probeServer(ctx, email, domain, server)
		if !res.serverFailed {
			return res
		}
		v.log.WithFields(logrus.Fields{"server": server.Host, "email": email}).
			Debugf("server unusable, trying next: %s", res.message)
	}
	return attemptResult{
		exists:  ExistsUnknown,
		message: "no reachable mail server",
	}
}

// probeServer runs one SMTP session against one server as an explicit state
// machine: connect → greet → mail from → rcpt target → rcpt catch-all → close.
func (v *SmtpVerifier) probeServer(ctx context.Context, email, domain string, server MailServer) (res attemptResult) {
	var (
		conn   net.Conn
		client *smtp.Client
	)

	defer func() {
		// QUIT on every exit path; best effort.
		if client != nil {
			if conn != nil {
				_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
			}
			_ = client.Quit()
			_ = client.Close()
		} else if conn != nil {
			_ = conn.Close()
		}
	}()

	addr := net.JoinHostPort(server.Host, strconv.Itoa(server.Port))

	for state := stateConnect; ; {
		if conn != nil {
			_ = conn.SetDeadline(time.Now().Add(v.settings.SMTPTimeout))
		}

		switch state {
		case stateConnect:
			dialer := net.Dialer{Timeout: v.settings.SMTPTimeout}
			c, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return attemptResult{serverFailed: true, message: fmt.Sprintf("connect to %s failed: %v", addr, err)}
			}
			conn = c
			_ = conn.SetDeadline(time.Now().Add(v.settings.SMTPTimeout))
			cl, err := smtp.NewClient(conn, server.Host)
			if err != nil {
				return attemptResult{serverFailed: true, message: fmt.Sprintf("greeting from %s failed: %v", addr, err)}
			}
			client = cl
			state = stateGreet

		case stateGreet:
			if err := client.Hello(v.settings.SMTPHelloDomain); err != nil {
				return attemptResult{serverFailed: true, message: fmt.Sprintf("EHLO rejected by %s: %v", addr, err)}
			}
			state = stateMailFrom

		case stateMailFrom:
			if err := client.Mail(v.settings.SMTPSenderEmail); err != nil {
				return attemptResult{serverFailed: true, message: fmt.Sprintf("MAIL FROM rejected by %s: %v", addr, err)}
			}
			state = stateRcptTarget

		case stateRcptTarget:
			err := client.Rcpt(email)
			if err == nil {
				res = attemptResult{exists: ExistsYes, message: fmt.Sprintf("recipient accepted by %s", server.Host)}
				state = stateRcptCatchAll
				continue
			}
			return classifyRcptError(err, server.Host)

		case stateRcptCatchAll:
			// The target was accepted; check whether the server would accept
			// anything at this domain.
			probe := randomLocalPart(12) + "@" + domain
			if err := client.Rcpt(probe); err == nil {
				res.isCatchAll = true
				// A catch-all undermines the positive signal, so it stays
				// retryable like any other inconclusive outcome.
				res.retryable = true
				res.message = fmt.Sprintf("recipient accepted by %s, but server accepts any address (catch-all)", server.Host)
			}
			state = stateClose

		case stateClose:
			return res
		}
	}
}

// classifyRcptError maps an RCPT TO rejection onto the tri-state outcome:
// 5xx is a final negative, 4xx and timeouts are retryable unknowns.
func classifyRcptError(err error, host string) attemptResult {
	if protoErr, ok := err.(*textproto.Error); ok {
		switch {
		case protoErr.Code >= 500:
			return attemptResult{
				exists:  ExistsNo,
				message: fmt.Sprintf("recipient rejected by %s: %d %s", host, protoErr.Code, protoErr.Msg),
			}
		case protoErr.Code >= 400:
			return attemptResult{
				exists:    ExistsUnknown,
				retryable: true,
				message:   fmt.Sprintf("temporary failure from %s (greylisting?): %d %s", host, protoErr.Code, protoErr.Msg),
			}
		}
	}
	return attemptResult{
		exists:    ExistsUnknown,
		retryable: true,
		message:   fmt.Sprintf("RCPT to %s failed: %v", host, err),
	}
}

const randomLocalAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// randomLocalPart builds a practically-unguessable local part for catch-all
// detection.
func randomLocalPart(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "mb" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	for i, b := range buf {
		buf[i] = randomLocalAlphabet[int(b)%len(randomLocalAlphabet)]
	}
	return string(buf)
}
