package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jagatabuk/inquirybot/internal/config"
	"github.com/jagatabuk/inquirybot/internal/email"
)

var cfgFile string

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "inquirybot",
		Short: "inquirybot - Contact form inquiry analyser",
		Long: `inquirybot watches a mailbox for contact-form notifications, classifies
each inquiry with keyword rules, estimates effort and cost, and emails a
summary with suggested replies to the operator.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.inquirybot/config.yaml)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		Long:  "Write a config file with the mailbox account, operator address and defaults.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the mailbox and send analyses",
		Long: `Poll the mailbox for unread form notifications and email an analysis of each
to the operator. Runs until interrupted unless --once is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single poll cycle and exit")

	return cmd
}

func analyzeCmd() *cobra.Command {
	var asJSON, asHTML bool

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyse a notification body without touching any mailbox",
		Long:  "Read a notification body from a file (or stdin) and print the analysis and the report that would be sent.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}
			return runAnalyze(in, cmd.OutOrStdout(), asJSON, asHTML)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Print the HTML report instead of the text one")

	return cmd
}

func statusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show processed inquiries and statistics",
		Long:  "Display totals by outcome and inquiry type, and the most recent inquiries.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout(), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of recent inquiries to show")

	return cmd
}

func runInit(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "🤖 inquirybot Configuration Setup")
	fmt.Fprintln(out, "=================================")
	fmt.Fprintln(out)

	cfg := config.Default()

	fmt.Fprintln(out, "📥 Mailbox (IMAP) that receives form notifications")
	fmt.Fprintln(out, "  (Gmail needs an app password: https://support.google.com/accounts/answer/185833)")
	if v := prompt(reader, out, fmt.Sprintf("  Account [%s]: ", cfg.Inbox.Username)); v != "" {
		cfg.Inbox.Username = v
		cfg.Email.From = v
		cfg.Email.SMTP.Username = v
	}
	if v := prompt(reader, out, "  App password (leave empty to use AI_EMAIL_PASS): "); v != "" {
		cfg.Inbox.Password = v
		cfg.Email.SMTP.Password = v
	}
	if v := prompt(reader, out, fmt.Sprintf("  Form sender [%s]: ", cfg.Inbox.SenderFilter)); v != "" {
		cfg.Inbox.SenderFilter = v
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "📧 Notifications")
	for attempts := 0; cfg.Email.To == ""; attempts++ {
		if attempts == 3 {
			return fmt.Errorf("operator address is required")
		}
		v := prompt(reader, out, "  Operator address (required): ")
		if err := email.ValidateEmail(v); err != nil {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}
		cfg.Email.To = v
	}

	configPath := resolveConfigPath()
	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "✅ Configuration saved to: %s\n", configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Review and edit the config file if needed")
	fmt.Fprintln(out, "  2. Run 'inquirybot analyze sample.txt' to try the rules on a saved notification")
	fmt.Fprintln(out, "  3. Run 'inquirybot run --once' to process the mailbox once")
	fmt.Fprintln(out, "  4. Run 'inquirybot run' to keep polling")

	return nil
}

func prompt(reader *bufio.Reader, out io.Writer, message string) string {
	fmt.Fprint(out, message)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return ""
	}
	return strings.TrimSpace(input)
}
