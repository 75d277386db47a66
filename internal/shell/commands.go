package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"desshell/internal/catalog"
	"desshell/internal/config"
)

// termReadPassword prompts on stderr and reads without echo
func termReadPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func (s *Shell) cmdExecProc(ctx context.Context, rest string) error {
	name, args, describe, err := parseProcCall(rest)
	if err != nil {
		return fmt.Errorf("%w\n%s", err, s.usage("execproc"))
	}

	if describe {
		res, err := s.cat.DescribeProc(ctx, name)
		if err != nil {
			return err
		}
		if res.Empty() {
			s.out.Plainf("Procedure %s takes no arguments", name)
			return nil
		}
		s.out.Table(res)
		return nil
	}

	if err := s.cat.CallProc(ctx, name, args); err != nil {
		return err
	}
	s.out.Successf("Procedure %s executed", name)
	return nil
}

func (s *Shell) cmdSetPassword(ctx context.Context, rest string) error {
	if stripSemicolon(rest) != "" {
		return fmt.Errorf("set_password takes no arguments\n%s", s.usage("set_password"))
	}

	password, err := s.readPassword("Enter new password: ")
	if err != nil {
		return err
	}
	confirm, err := s.readPassword("Re-enter new password: ")
	if err != nil {
		return err
	}

	switch {
	case strings.TrimSpace(password) == "":
		return fmt.Errorf("password cannot be blank")
	case strings.ContainsAny(password, " \t"):
		return fmt.Errorf("password cannot contain whitespace")
	case password != confirm:
		return fmt.Errorf("passwords do not match")
	}

	if err := s.cat.ChangePassword(ctx, password); err != nil {
		if !errors.Is(err, catalog.ErrUnsupported) {
			return err
		}
		// A local database has no accounts; update the stored
		// credentials anyway so the profile stays consistent
		s.out.Hintf("%s does not manage passwords; updating stored credentials only",
			s.cat.Dialect().DriverName())
	}

	if err := s.cfg.SetPassword(s.profile, password); err != nil {
		return err
	}
	path := s.cfgPath
	if path == "" {
		path = config.DefaultSavePath()
	}
	if err := s.cfg.Save(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	s.cfgPath = path

	s.out.Successf("Password changed for profile %s", s.profile)
	return nil
}

func (s *Shell) cmdChangeDB(ctx context.Context, rest string) error {
	fields := strings.Fields(stripSemicolon(rest))
	if len(fields) != 1 {
		return fmt.Errorf("%s", s.usage("change_db"))
	}

	prof, name, err := s.cfg.Profile(fields[0])
	if err != nil {
		return err
	}
	if name == s.profile {
		s.out.Hintf("Already connected to %s", name)
		return nil
	}

	// Connect first so a failure leaves the current session usable
	next, err := catalog.Open(ctx, name, prof)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", name, err)
	}
	next.SetChunkSize(s.cfg.ChunkSize)

	if err := s.cat.Close(); err != nil {
		slog.Warn("close previous connection", "profile", s.profile, "error", err)
	}
	s.cat = next
	s.profile = name

	if next.User != "" {
		s.out.Successf("Connected to %s as %s", name, next.User)
	} else {
		s.out.Successf("Connected to %s", name)
	}
	return nil
}

func (s *Shell) cmdFindUser(ctx context.Context, rest string) error {
	pattern := stripSemicolon(rest)
	if pattern == "" || len(strings.Fields(pattern)) != 1 {
		return fmt.Errorf("%s", s.usage("find_user"))
	}

	res, err := s.cat.FindUsers(ctx, likePattern(pattern))
	if err != nil {
		return err
	}
	if res.Empty() {
		s.out.Plainf("No users matching %s", pattern)
		return nil
	}
	s.out.Table(res)
	return nil
}

func (s *Shell) cmdDescribeTable(ctx context.Context, rest string) error {
	fields := strings.Fields(stripSemicolon(rest))

	var table, pattern string
	switch {
	case len(fields) == 1:
		table = fields[0]
	case len(fields) == 2:
		table, pattern = fields[0], fields[1]
	case len(fields) == 3 && strings.EqualFold(fields[1], "with"):
		table, pattern = fields[0], fields[2]
	default:
		return fmt.Errorf("%s", s.usage("describe_table"))
	}
	if pattern != "" {
		pattern = likePattern(pattern)
	}

	desc, err := s.cat.Describe(ctx, table, pattern)
	if err != nil {
		return err
	}

	s.out.Titlef("%s", desc.Table)
	if desc.Comment != "" {
		s.out.Plainf("Description: %s", desc.Comment)
	}
	s.out.Plainf("Estimated rows: %s", desc.RowCount)
	s.out.Plainf("")
	s.out.Table(desc.Columns)
	return nil
}

func (s *Shell) cmdFindTables(ctx context.Context, rest string) error {
	pattern := stripSemicolon(rest)
	if pattern == "" || len(strings.Fields(pattern)) != 1 {
		return fmt.Errorf("%s", s.usage("find_tables"))
	}

	res, err := s.cat.FindTables(ctx, likePattern(pattern))
	if err != nil {
		return err
	}
	if res.Empty() {
		s.out.Plainf("No tables matching %s", pattern)
		return nil
	}
	s.out.Table(res)
	return nil
}

func (s *Shell) cmdFindTablesWithColumn(ctx context.Context, rest string) error {
	pattern := stripSemicolon(rest)
	if pattern == "" || len(strings.Fields(pattern)) != 1 {
		return fmt.Errorf("%s", s.usage("find_tables_with_column"))
	}

	res, err := s.cat.FindTablesWithColumn(ctx, likePattern(pattern))
	if err != nil {
		return err
	}
	if res.Empty() {
		s.out.Plainf("No tables with a column matching %s", pattern)
		return nil
	}
	s.out.Table(res)
	return nil
}

func (s *Shell) cmdAddComment(ctx context.Context, rest string) error {
	kind, rest := splitWord(rest)
	target, rest := splitWord(rest)
	comment := unquote(stripSemicolon(rest))
	if target == "" || comment == "" {
		return fmt.Errorf("%s", s.usage("add_comment"))
	}

	switch strings.ToLower(kind) {
	case "table":
		if err := s.cat.AddTableComment(ctx, target, comment); err != nil {
			return err
		}
		s.out.Successf("Comment added to table %s", target)
	case "column":
		i := strings.LastIndexByte(target, '.')
		if i <= 0 || i == len(target)-1 {
			return fmt.Errorf("column reference must be TABLE.COLUMN\n%s", s.usage("add_comment"))
		}
		table, column := target[:i], target[i+1:]
		if err := s.cat.AddColumnComment(ctx, table, column, comment); err != nil {
			return err
		}
		s.out.Successf("Comment added to column %s of table %s", column, table)
	default:
		return fmt.Errorf("%s", s.usage("add_comment"))
	}
	return nil
}
