package commands

import (
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/diary/pkg/api"
	"tableflip.dev/diary/pkg/calendar"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/session"
	"tableflip.dev/diary/pkg/store"
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "diary",
		Short: base.Wrap80("Keep a diary of daily memories, on a calendar in your terminal."),
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if termenv.EnvNoColor() {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("api-url", "", "Memory API host, overrides api_url from the config.")
	flags.String("lang", "", `Language of messages, "ko" or "en".`)
	flags.BoolP("verbose", "v", false, "Log requests and session changes to stderr.")
	_ = viper.BindPFlag(store.KeyAPIURL, flags.Lookup("api-url"))
	_ = viper.BindPFlag(store.KeyLang, flags.Lookup("lang"))
	_ = viper.BindPFlag(store.KeyVerbose, flags.Lookup("verbose"))

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addUI(topLevel)
	addLogin(topLevel)
	addSignup(topLevel)
	addLogout(topLevel)
	addInfo(topLevel)
	addGet(topLevel)
	addAdd(topLevel)
	addEdit(topLevel)
	addDelete(topLevel)
	addCalendar(topLevel)
	addCounts(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}

// env is what every command needs once configuration is resolved.
type env struct {
	cfg    store.Config
	log    *zap.Logger
	msgs   *i18n.Printer
	gate   *session.Gate
	client *api.Client
}

func loadEnv() (*env, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}

	log := zap.NewNop()
	if viper.GetBool(store.KeyVerbose) {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}

	creds, err := store.Load(cfg)
	if err != nil {
		return nil, err
	}
	gate := session.New(creds, session.WithLogger(log.Named("session")))
	if err := gate.Init(); err != nil {
		return nil, err
	}

	client, err := api.New(cfg.APIURL(),
		api.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout()}),
		api.WithTokenSource(gate),
		api.WithUnauthorizedHook(gate.Expire),
		api.WithLogger(log.Named("api")),
	)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		log:    log,
		msgs:   i18n.New(cfg.Lang()),
		gate:   gate,
		client: client,
	}, nil
}

func (e *env) weekStart() time.Weekday {
	wd, err := calendar.ParseWeekday(e.cfg.WeekStart())
	if err != nil {
		e.log.Warn("unknown week_start, using sunday", zap.String("week_start", e.cfg.WeekStart()))
		return time.Sunday
	}
	return wd
}

func (e *env) close() {
	_ = e.log.Sync()
}
