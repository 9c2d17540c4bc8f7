package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"adhan-manager/internal/adapter/primary/web"
	"adhan-manager/internal/adapter/secondary/notifier"
	"adhan-manager/internal/adapter/secondary/repository"
	"adhan-manager/internal/adapter/secondary/solver"
	"adhan-manager/internal/domain"
	"adhan-manager/internal/format"
	"adhan-manager/internal/logging"
	"adhan-manager/internal/usecase"
)

const (
	envConfig   = "ADHAN_CONFIG"
	envLogLevel = "ADHAN_LOG_LEVEL"
	defaultAddr = "127.0.0.1:7070"
)

var (
	cfgPath   string
	verbosity int
)

// NewRootCmd creates the root CLI command.
// This is the primary adapter that translates CLI inputs to use case calls.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "adhan-manager",
		Short:         "Prayer times, adhan notifications and a small web UI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", repository.DefaultPath(), "config file path (env "+envConfig+")")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v, -vv, ... up to 4)")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		if !cmd.Flags().Changed("config") {
			if p := os.Getenv(envConfig); p != "" {
				cfgPath = p
			}
		}
		count := verbosity
		if lvl := os.Getenv(envLogLevel); lvl != "" && verbosity == 0 {
			_, n, err := logging.ParseLevel(lvl)
			if err != nil {
				return fmt.Errorf("%s: %w", envLogLevel, err)
			}
			count = n
		}
		logging.SetVerbosity(count)
		return nil
	}

	cmd.AddCommand(
		newTimesCmd(),
		newNextCmd(),
		newCurrentCmd(),
		newQiblaCmd(),
		newListenCmd(),
		newWebCmd(),
		newServeCmd(),
		newConfigCmd(),
		newShellCmd(),
	)

	return cmd
}

// app bundles the wiring shared by every command.
type app struct {
	repo *repository.FileRepository
	uc   usecase.AdhanUseCase
}

func newApp() (*app, error) {
	repo, err := repository.NewFileRepository(cfgPath)
	if err != nil {
		return nil, err
	}

	var uc usecase.AdhanUseCase
	n := notifier.NewSettingsNotifier(os.Stdout, func() domain.Settings { return uc.Settings() })
	uc, err = usecase.NewAdhanUseCase(repo, solver.New(), n, nil)
	if err != nil {
		return nil, err
	}
	return &app{repo: repo, uc: uc}, nil
}

func (a *app) formatter() (*format.Formatter, error) {
	return format.FromSettings(a.uc.Settings())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newTimesCmd() *cobra.Command {
	var dateFlag string
	cmd := &cobra.Command{
		Use:   "times",
		Short: "Print the prayer times of a day (default today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			loc, err := a.uc.Settings().Location()
			if err != nil {
				return err
			}
			date := time.Now().In(loc)
			if dateFlag != "" {
				date, err = time.ParseInLocation("2006-01-02", dateFlag, loc)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}

			set, err := a.uc.PrayerTimes(date)
			if err != nil {
				return err
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", date.Format("Monday 2006-01-02"), a.uc.Settings().Calculation.Method)
			formatted := f.Format(set)
			for _, p := range domain.Prayers {
				fmt.Fprintf(out, "  %-8s %s\n", p.Title(), formatted[p])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "day to compute, YYYY-MM-DD")
	return cmd
}

func newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer and the time left",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			now := time.Now()
			next, err := a.uc.NextPrayer(now)
			if err != nil {
				return err
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at %s (in %s)\n",
				next.Prayer.Title(), f.Timestamp(next.At), next.At.Sub(now).Round(time.Minute))
			return nil
		},
	}
}

func newCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the prayer whose time is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			current, err := a.uc.CurrentPrayer(time.Now())
			if err != nil {
				return err
			}
			if current.Prayer == domain.PrayerNone {
				fmt.Fprintln(cmd.OutOrStdout(), "No prayer yet today (before Fajr)")
				return nil
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s since %s\n", current.Prayer.Title(), f.Timestamp(current.At))
			return nil
		},
	}
}

func newQiblaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qibla",
		Short: "Show the Qibla bearing for the configured location",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f° from true north\n", a.uc.Qibla())
			return nil
		},
	}
}

// runListener starts the scheduler and the config watcher and blocks until ctx ends.
func runListener(ctx context.Context, g *errgroup.Group, a *app) error {
	if err := a.uc.Start(ctx); err != nil {
		return err
	}
	g.Go(func() error {
		return usecase.WatchConfig(ctx, a.repo.Path(), a.uc.Reload)
	})
	return nil
}

func newListenCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "listen",
		Aliases: []string{"daemon"},
		Short:   "Notify at each prayer time (no web server)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			if err := runListener(ctx, g, a); err != nil {
				return err
			}
			fmt.Println("Adhan listener started")
			logging.Infof("listening with config %s", a.repo.Path())

			<-ctx.Done()
			fmt.Println("Listener shutting down...")
			return g.Wait()
		},
	}
}

func serveHTTP(ctx context.Context, g *errgroup.Group, srv *web.Server) {
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func newWebCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Start only the web UI and REST API (no notifications)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			fmt.Printf("Adhan Manager web UI running at http://%s\n", addr)
			logging.Infof("Web UI: http://%s (notifications disabled)", addr)
			serveHTTP(ctx, g, web.NewServer(a.uc, addr))
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "HTTP listen address")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start notifications and the web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			if err := runListener(ctx, g, a); err != nil {
				return err
			}
			fmt.Printf("Adhan Manager running at http://%s\n", addr)
			logging.Infof("Adhan Manager UI: http://%s", addr)
			serveHTTP(ctx, g, web.NewServer(a.uc, addr))
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "HTTP listen address")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or change the settings",
	}
	cmd.AddCommand(newConfigGetCmd(), newConfigSetCmd(), newConfigMethodsCmd())
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the current settings as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			s := a.uc.Settings()
			c := s.Calculation
			display := map[string]any{
				"path":                  a.repo.Path(),
				"latitude":              c.Latitude,
				"longitude":             c.Longitude,
				"method":                c.Method.String(),
				"asrTime":               c.AsrTime,
				"highLatitudeRule":      c.HighLatitudeRule,
				"polarCircleResolution": c.PolarCircleResolution,
				"timezone":              s.Timezone,
				"hour12":                s.Hour12,
				"showWeekday":           s.ShowWeekday,
			}
			if len(c.Adjustments) > 0 {
				display["adjustments"] = c.Adjustments
			}
			if s.NotifyCommand != "" {
				display["notifyCommand"] = s.NotifyCommand
			}

			out, err := json.MarshalIndent(display, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newConfigMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the calculation methods",
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range domain.Methods() {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var (
		lat, lng    float64
		method      string
		asr         string
		highLat     string
		polar       string
		tz          string
		hour12      bool
		weekday     bool
		notifyCmd   string
		adjustments []string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings; only the given flags are updated",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			var patch domain.SettingsPatch
			calc := &patch.Calculation
			flags := cmd.Flags()
			if flags.Changed("lat") {
				calc.Latitude = &lat
			}
			if flags.Changed("lng") {
				calc.Longitude = &lng
			}
			if flags.Changed("method") {
				m, ok := domain.ParseMethod(method)
				if !ok {
					return fmt.Errorf("unknown method %q (see 'config methods')", method)
				}
				spec := domain.NamedMethod(m)
				calc.Method = &spec
			}
			if flags.Changed("asr") {
				v, err := domain.ParseAsrTime(asr)
				if err != nil {
					return err
				}
				calc.AsrTime = &v
			}
			if flags.Changed("high-lat") {
				v, err := domain.ParseHighLatitudeRule(highLat)
				if err != nil {
					return err
				}
				calc.HighLatitudeRule = &v
			}
			if flags.Changed("polar") {
				v, err := domain.ParsePolarCircleResolution(polar)
				if err != nil {
					return err
				}
				calc.PolarCircleResolution = &v
			}
			if len(adjustments) > 0 {
				calc.Adjustments, err = parseAdjustFlags(adjustments)
				if err != nil {
					return err
				}
			}
			if flags.Changed("tz") {
				patch.Timezone = &tz
			}
			if flags.Changed("hour12") {
				patch.Hour12 = &hour12
			}
			if flags.Changed("weekday") {
				patch.ShowWeekday = &weekday
			}
			if flags.Changed("notify") {
				patch.NotifyCommand = &notifyCmd
			}

			if err := a.uc.UpdateConfig(patch); err != nil {
				return err
			}
			s := a.uc.Settings()
			fmt.Fprintf(cmd.OutOrStdout(), "saved: lat=%.4f lng=%.4f method=%s tz=%s\n",
				s.Calculation.Latitude, s.Calculation.Longitude, s.Calculation.Method, s.Timezone)
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&lat, "lat", 0, "latitude in decimal degrees")
	f.Float64Var(&lng, "lng", 0, "longitude in decimal degrees")
	f.StringVar(&method, "method", "", "calculation method (see 'config methods')")
	f.StringVar(&asr, "asr", "", "asr time: jumhour or hanafi")
	f.StringVar(&highLat, "high-lat", "", "middle_of_the_night, seventh_of_the_night or twilight_angle")
	f.StringVar(&polar, "polar", "", "unresolved, aqrab_balad or aqrab_yaum")
	f.StringVar(&tz, "tz", "", "IANA time zone, e.g. Europe/Berlin, or Local")
	f.BoolVar(&hour12, "hour12", true, "12-hour clock")
	f.BoolVar(&weekday, "weekday", false, "prefix times with the weekday")
	f.StringVar(&notifyCmd, "notify", "", "command to run at each prayer; {prayer} and {time} are substituted")
	f.StringSliceVar(&adjustments, "adjust", nil, "minute offsets, e.g. --adjust fajr=2,isha=-3")
	return cmd
}

func parseAdjustFlags(values []string) (domain.Adjustments, error) {
	raw := make(map[string]int, len(values))
	for _, v := range values {
		name, minutes, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("--adjust %q: want prayer=minutes", v)
		}
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(minutes), "%d", &n); err != nil {
			return nil, fmt.Errorf("--adjust %q: %w", v, err)
		}
		raw[name] = n
	}
	return domain.ParseAdjustments(raw)
}
