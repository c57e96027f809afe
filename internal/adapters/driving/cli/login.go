package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in to the server",
	Long: `Logs in with a username and password and stores the session cookie.
The password is read from the terminal without echo, or from stdin with
--password-stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var loginPasswordStdin bool

func init() {
	loginCmd.Flags().BoolVar(
		&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	if authenticator == nil || sessionStore == nil {
		return errors.New("login not configured")
	}

	in := bufio.NewReader(cmd.InOrStdin())
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		cmd.Print("Username: ")
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return errors.New("username is required")
	}

	password, err := promptPassword(cmd, in)
	if err != nil {
		return err
	}

	cookie, err := authenticator.Login(cmd.Context(), username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := sessionStore.SetSession(username, cookie); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	cmd.Printf("Logged in as %s.\n", username)
	return nil
}

// promptPassword reads the password from the terminal when stdin is one,
// otherwise the first line of stdin.
func promptPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if !loginPasswordStdin {
		if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			cmd.Print("Password: ")
			pw, err := term.ReadPassword(int(f.Fd()))
			cmd.Println()
			if err != nil {
				return "", fmt.Errorf("read password: %w", err)
			}
			return string(pw), nil
		}
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if sessionStore == nil {
		return errors.New("login not configured")
	}
	user := sessionStore.Username()
	if err := sessionStore.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if user == "" {
		cmd.Println("Logged out.")
	} else {
		cmd.Printf("Logged out %s.\n", user)
	}
	return nil
}
