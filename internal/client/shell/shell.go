// Package shell is the interactive front end of the client: one command per
// line, each mapped onto a session or workflow operation.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/researchhive/internal/client/backend"
	"github.com/atinyakov/researchhive/internal/client/blob"
	"github.com/atinyakov/researchhive/internal/client/comic"
	"github.com/atinyakov/researchhive/internal/client/mcq"
	"github.com/atinyakov/researchhive/internal/client/pipeline"
	"github.com/atinyakov/researchhive/internal/client/qa"
	"github.com/atinyakov/researchhive/internal/client/session"
	"github.com/atinyakov/researchhive/internal/client/transcript"
	"github.com/atinyakov/researchhive/internal/models"
	"github.com/atinyakov/researchhive/internal/viewer"
	"go.uber.org/zap"
)

const helpText = `Available commands:
  login <user>             log in (password is prompted)
  register <user>          create an account
  logout                   end the session
  whoami                   show the logged-in user
  generate [key=value...]  summary, podcast, slides, audio and video
                           keys: level tone length template style res
  show                     print the last generated summary and script
  mcq [n]                  generate n questions (1-10, default 5)
  answer <q> <letter>      answer question q
  check                    reveal the correct answers
  ask <question>           ask a question about a document
  comic                    generate a comic
  artifacts                list generated files
  save <id> [dir]          write an artifact to disk
  history [n]              show recent pipeline runs
  forget <id...>           delete runs from history
  help                     show this help
  exit                     quit`

var (
	errEOF       = errors.New("input closed")
	errNoQuiz    = errors.New("No questions generated yet")
	errNoHistory = errors.New("History is disabled (no database configured)")
)

func usage(u string) error {
	return errors.New("Usage: " + u)
}

// History is the optional run journal.
type History interface {
	Recent(ctx context.Context, username string, limit int) ([]models.Run, error)
	Forget(ctx context.Context, username string, ids []string) (int64, error)
}

// Deps are the services the shell drives. History and ViewerURL are
// optional.
type Deps struct {
	Session  *session.Store
	Pipeline *pipeline.Orchestrator
	MCQ      *mcq.Workflow
	QA       *qa.Workflow
	Comic    *comic.Workflow
	Store    *blob.Store
	History  History

	// ViewerURL is the base URL of the artifact viewer, e.g.
	// "http://127.0.0.1:8090".
	ViewerURL string
}

// Shell reads commands from in and writes results to out.
type Shell struct {
	Deps
	scanner *bufio.Scanner
	out     io.Writer
	log     *zap.Logger
}

// New returns a Shell over in/out.
func New(deps Deps, in io.Reader, out io.Writer, log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{Deps: deps, scanner: bufio.NewScanner(in), out: out, log: log}
}

// Run executes commands until "exit", end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) {
	for ctx.Err() == nil {
		fmt.Fprint(s.out, "researchhive> ")
		if !s.scanner.Scan() {
			break
		}
		args := strings.Fields(s.scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(s.out, "Bye")
			return
		}
		if err := s.dispatch(ctx, args[0], args[1:]); err != nil {
			if errors.Is(err, errEOF) {
				return
			}
			fmt.Fprintln(s.out, "Error:", backend.Message(err))
		}
	}
}

// dispatch runs one command under the shell's context. Each backend round
// trip is bounded by the HTTP client's own timeout, never the command as a
// whole, so a long pipeline is not cut short between stages.
func (s *Shell) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "login":
		return s.login(ctx, args)
	case "register":
		return s.register(ctx, args)
	case "logout":
		s.Session.Logout()
		fmt.Fprintln(s.out, "Logged out")
	case "whoami":
		if !s.Session.Authenticated() {
			fmt.Fprintln(s.out, "Not logged in")
			return nil
		}
		fmt.Fprintln(s.out, s.Session.Username())
	case "generate":
		return s.generate(ctx, args)
	case "show":
		s.show()
	case "mcq":
		return s.mcq(ctx, args)
	case "answer":
		return s.answer(args)
	case "check":
		return s.check()
	case "ask":
		return s.ask(ctx, args)
	case "comic":
		return s.comic(ctx)
	case "artifacts":
		s.artifacts()
	case "save":
		return s.save(args)
	case "history":
		return s.history(ctx, args)
	case "forget":
		return s.forget(ctx, args)
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func (s *Shell) credentials(args []string, form string) (string, string, error) {
	if len(args) != 1 {
		return "", "", usage(form)
	}
	pass, ok := s.prompt("Password: ")
	if !ok {
		return "", "", errEOF
	}
	return args[0], pass, nil
}

func (s *Shell) login(ctx context.Context, args []string) error {
	user, pass, err := s.credentials(args, "login <user>")
	if err != nil {
		return err
	}
	if _, err := s.Session.Login(ctx, user, pass); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Logged in as %s\n", s.Session.Username())
	return nil
}

func (s *Shell) register(ctx context.Context, args []string) error {
	user, pass, err := s.credentials(args, "register <user>")
	if err != nil {
		return err
	}
	if _, err := s.Session.Register(ctx, user, pass); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Registration successful. Please log in.")
	return nil
}

func (s *Shell) generate(ctx context.Context, args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	in, err := s.promptInput()
	if err != nil {
		return err
	}

	res, err := s.Pipeline.Run(ctx, pipeline.Request{Input: in, Options: opts})
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, "Generation complete.")
	s.printHandle("Slides", res.Slides)
	s.printHandle("Audio", res.Audio)
	if res.Video != nil {
		s.printHandle("Video", *res.Video)
	} else {
		fmt.Fprintln(s.out, "Video: not available")
	}
	return nil
}

func (s *Shell) show() {
	res := s.Pipeline.Result()
	if res == nil {
		fmt.Fprintln(s.out, "Nothing generated yet")
		return
	}
	for _, raw := range res.Summary {
		sec := transcript.ParseSection(raw)
		fmt.Fprintf(s.out, "== %s ==\n", sec.Heading)
		for _, b := range sec.Bullets {
			fmt.Fprintf(s.out, "  * %s\n", b)
		}
	}
	fmt.Fprintln(s.out, "-- Podcast --")
	fmt.Fprintln(s.out, transcript.Render(transcript.ParseScript(res.PodcastScript)))
}

func (s *Shell) mcq(ctx context.Context, args []string) error {
	n := mcq.DefaultQuestions
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return usage("mcq [n]")
		}
		n = v
	}
	in, err := s.promptInput()
	if err != nil {
		return err
	}

	q, err := s.MCQ.Generate(ctx, in, n)
	if err != nil {
		return err
	}
	for i := 0; i < q.Len(); i++ {
		m := q.Question(i)
		fmt.Fprintf(s.out, "%d. %s\n", i+1, m.Question)
		for j, opt := range m.Options {
			fmt.Fprintf(s.out, "   %s) %s\n", mcq.OptionLetter(j), opt)
		}
	}
	return nil
}

func (s *Shell) answer(args []string) error {
	if len(args) != 2 {
		return usage("answer <q> <letter>")
	}
	q := s.MCQ.Quiz()
	if q == nil {
		return errNoQuiz
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return usage("answer <q> <letter>")
	}
	return q.SelectAnswer(i-1, strings.ToUpper(args[1]))
}

func (s *Shell) check() error {
	q := s.MCQ.Quiz()
	if q == nil {
		return errNoQuiz
	}
	if err := q.Reveal(); err != nil {
		return err
	}
	for i := 0; i < q.Len(); i++ {
		g, err := q.Grade(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%d. %s\n", i+1, g.Message)
		if g.Explanation != "" {
			fmt.Fprintf(s.out, "   %s\n", g.Explanation)
		}
	}
	correct, total, err := q.Score()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Score: %d/%d\n", correct, total)
	return nil
}

func (s *Shell) ask(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("ask <question>")
	}
	query := strings.Join(args, " ")
	in, err := s.promptInput()
	if err != nil {
		return err
	}

	var answer string
	if in.Kind == models.InputPDF {
		answer, err = s.QA.AskDocument(ctx, in.PDF, query)
	} else {
		answer, err = s.QA.Ask(ctx, in.Text, query)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, answer)
	return nil
}

func (s *Shell) comic(ctx context.Context) error {
	in, err := s.promptInput()
	if err != nil {
		return err
	}
	h, err := s.Comic.Generate(ctx, in)
	if err != nil {
		return err
	}
	s.printHandle("Comic", h)
	return nil
}

func (s *Shell) artifacts() {
	hs := s.Store.List()
	if len(hs) == 0 {
		fmt.Fprintln(s.out, "No artifacts")
		return
	}
	for _, h := range hs {
		s.printHandle(h.Filename, h)
	}
}

func (s *Shell) save(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("save <id> [dir]")
	}
	dir := "."
	if len(args) == 2 {
		dir = args[1]
	}
	path, err := s.Store.SaveTo(args[0], dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Saved %s\n", path)
	return nil
}

func (s *Shell) history(ctx context.Context, args []string) error {
	if s.History == nil {
		return errNoHistory
	}
	limit := 0
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return usage("history [n]")
		}
		limit = v
	}
	runs, err := s.History.Recent(ctx, s.Session.Username(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(s.out, "No runs recorded")
		return nil
	}
	for _, r := range runs {
		line := fmt.Sprintf("%s  %s  %-5s  %s", r.ID, r.FinishedAt.Format(time.DateTime), r.InputKind, r.Stage)
		if r.Error != "" {
			line += "  " + r.Error
		} else if r.Stage == pipeline.Complete.String() && !r.VideoPresent {
			line += "  (no video)"
		}
		fmt.Fprintln(s.out, line)
	}
	return nil
}

func (s *Shell) forget(ctx context.Context, args []string) error {
	if s.History == nil {
		return errNoHistory
	}
	if len(args) == 0 {
		return usage("forget <id...>")
	}
	n, err := s.History.Forget(ctx, s.Session.Username(), args)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Removed %d run(s)\n", n)
	return nil
}

func (s *Shell) printHandle(label string, h blob.Handle) {
	fmt.Fprintf(s.out, "%s: %s (%s, %d bytes)", label, h.ID, h.ContentType, h.Size)
	if s.ViewerURL != "" {
		fmt.Fprintf(s.out, " %s%s", s.ViewerURL, viewer.Path(h))
	}
	fmt.Fprintln(s.out)
}
