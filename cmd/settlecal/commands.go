package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/paycms/console/internal/calendar"
	"github.com/paycms/console/internal/config"
	"github.com/paycms/console/internal/domain"
)

type options struct {
	configPath string
	mode       string
	asJSON     bool
}

// env is the calendar context shared by every subcommand.
type env struct {
	cal    *calendar.Calendar
	policy calendar.SettlementPolicy
	loc    *time.Location
	out    io.Writer
	asJSON bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "settlecal",
		Short:         "Business-day and settlement calendar for the CMS console",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&opts.mode, "mode", "m", "", "settlement mode (standard, accelerated); overrides config")
	rootCmd.PersistentFlags().BoolVarP(&opts.asJSON, "json", "j", false, "output as JSON")

	// Add subcommands
	rootCmd.AddCommand(monthCmd(opts))
	rootCmd.AddCommand(dayCmd(opts))
	rootCmd.AddCommand(settleCmd(opts))
	rootCmd.AddCommand(checkCmd(opts))
	rootCmd.AddCommand(addCmd(opts))
	rootCmd.AddCommand(holidaysCmd(opts))

	return rootCmd
}

func (o *options) env(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.mode != "" {
		cfg.Calendar.SettlementMode = o.mode
	}
	policy, err := cfg.Calendar.Policy()
	if err != nil {
		return nil, err
	}
	holidays, err := cfg.Calendar.Holidays()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Calendar.Location()
	if err != nil {
		return nil, err
	}
	return &env{
		cal:    calendar.New(holidays, cfg.Calendar.Rules()),
		policy: policy,
		loc:    loc,
		out:    cmd.OutOrStdout(),
		asJSON: o.asJSON,
	}, nil
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func monthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "month YEAR MONTH",
		Short: "Print a month with deadlines and settlement dates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("year: %w", err)
			}
			month, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("month: %w", err)
			}
			days, err := e.cal.MonthlyCalendar(year, time.Month(month), e.policy)
			if err != nil {
				return err
			}
			if e.asJSON {
				return e.printJSON(days)
			}

			if !e.cal.Holidays().Covers(year) {
				fmt.Fprintf(e.out, "warning: no holidays listed for %d, only weekends are closed\n", year)
			}
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tDAY\tBUSINESS\tDEADLINE\tBANK\tCARD")
			for _, d := range days {
				weekday := ""
				if t, err := calendar.ParseCanonical(d.Date); err == nil {
					weekday = t.Weekday().String()[:3]
				}
				if d.Settlement == nil {
					fmt.Fprintf(tw, "%s\t%s\tno\t-\t-\t-\n", d.Date, weekday)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\tyes\t%s\t%s\t%s\n",
					d.Date, weekday, d.WithdrawalDeadline, d.Settlement.Bank, d.Settlement.Card)
			}
			return tw.Flush()
		},
	}
}

type dayInfo struct {
	Date     string `json:"date"`
	Business bool   `json:"isBusinessDay"`
	Holiday  string `json:"holiday,omitempty"`
	Next     string `json:"nextBusinessDay"`
	Previous string `json:"previousBusinessDay"`
	Deadline string `json:"withdrawalDeadline"`
}

func dayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "day DATE",
		Short: "Describe a date (YYYYMMDD or YYYY-MM-DD)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			info := dayInfo{
				Date:     calendar.FormatCanonical(d),
				Business: e.cal.IsBusinessDay(d),
				Next:     calendar.FormatCanonical(e.cal.NextBusinessDay(d)),
				Previous: calendar.FormatCanonical(e.cal.PreviousBusinessDay(d)),
				Deadline: e.cal.WithdrawalDeadline(d),
			}
			info.Holiday, _ = e.cal.Holidays().Name(d)
			if e.asJSON {
				return e.printJSON(info)
			}

			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Date:\t%s (%s)\n", info.Date, d.Weekday())
			fmt.Fprintf(tw, "Business day:\t%t\n", info.Business)
			if info.Holiday != "" {
				fmt.Fprintf(tw, "Holiday:\t%s\n", info.Holiday)
			}
			fmt.Fprintf(tw, "Next business day:\t%s\n", info.Next)
			fmt.Fprintf(tw, "Previous business day:\t%s\n", info.Previous)
			fmt.Fprintf(tw, "Registration deadline:\t%s\n", info.Deadline)
			return tw.Flush()
		},
	}
}

type settleInfo struct {
	WithdrawalDate string `json:"withdrawalDate"`
	ServiceCd      string `json:"serviceCd"`
	Policy         string `json:"policy"`
	SettleDt       string `json:"settleDt"`
	RealSettleDt   string `json:"realSettleDt,omitempty"`
}

func settleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "settle DATE SERVICE",
		Short: "Compute the settlement date of a withdrawal (SERVICE is BANK or CARD)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			svc, err := domain.ParseServiceCode(args[1])
			if err != nil {
				return err
			}
			res, err := e.cal.SettlementDate(d, svc, e.policy)
			if err != nil {
				return err
			}
			info := settleInfo{
				WithdrawalDate: calendar.FormatCompact(d),
				ServiceCd:      string(svc),
				Policy:         e.policy.Name(),
				SettleDt:       res.SettleDt(),
				RealSettleDt:   res.RealSettleDt(),
			}
			if e.asJSON {
				return e.printJSON(info)
			}
			fmt.Fprintf(e.out, "%s %s settles %s", info.ServiceCd, info.WithdrawalDate, info.SettleDt)
			if info.RealSettleDt != "" {
				fmt.Fprintf(e.out, " (confirmed %s)", info.RealSettleDt)
			}
			fmt.Fprintf(e.out, " [%s]\n", info.Policy)
			return nil
		},
	}
}

func checkCmd(opts *options) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "check DATE",
		Short: "Check whether a withdrawal for DATE can still be registered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			now := time.Now().In(e.loc)
			if at != "" {
				if now, err = time.ParseInLocation("2006-01-02T15:04", at, e.loc); err != nil {
					return fmt.Errorf("--at: %w", err)
				}
			}
			adm := e.cal.RegistrationDeadlineCheck(d, now)
			if e.asJSON {
				return e.printJSON(map[string]any{
					"withdrawalDate": calendar.FormatCanonical(d),
					"deadline":       e.cal.WithdrawalDeadline(d),
					"allowed":        adm.Allowed,
					"reason":         adm.Reason,
				})
			}
			if adm.Allowed {
				color.New(color.FgGreen).Fprint(e.out, "allowed")
				fmt.Fprintf(e.out, ": register by %s\n", e.cal.WithdrawalDeadline(d))
				return nil
			}
			color.New(color.FgRed).Fprint(e.out, "refused")
			fmt.Fprintf(e.out, ": %s (deadline was %s)\n", adm.Reason, e.cal.WithdrawalDeadline(d))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "check as of YYYY-MM-DDTHH:MM in the calendar time zone")
	return cmd
}

func addCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add DATE N",
		Short: "Add N business days to DATE (N <= 0 returns DATE)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("N: %w", err)
			}
			result := calendar.FormatCanonical(e.cal.AddBusinessDays(d, n))
			if e.asJSON {
				return e.printJSON(map[string]string{"date": result})
			}
			fmt.Fprintln(e.out, result)
			return nil
		},
	}
}

func holidaysCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "holidays",
		Short: "List the holiday table",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}
			hs := e.cal.Holidays()
			if e.asJSON {
				return e.printJSON(hs.Holidays())
			}
			first, last := hs.Horizon()
			fmt.Fprintf(e.out, "%d holidays, %d-%d\n", hs.Len(), first, last)
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			for _, h := range hs.Holidays() {
				fmt.Fprintf(tw, "%s\t%s\n", h.Date, h.Name)
			}
			return tw.Flush()
		},
	}
}
