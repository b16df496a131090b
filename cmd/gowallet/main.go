// Command gowallet is a terminal client for the wallet service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/NicolasHaas/gowallet/pkg/client"
	"github.com/NicolasHaas/gowallet/pkg/logging"
	"github.com/NicolasHaas/gowallet/pkg/version"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailed     = 1
	exitUsage      = 2
	exitRedirected = 3
	exitUnclear    = 4
)

const usage = `usage: gowallet [global flags] <command> [flags]

commands:
  register        create an account
  login           sign in
  logout          sign out and forget the stored session
  whoami          show the signed-in user
  dashboard       show balance and possible recipients
  pay             send money: -to <user id> -amount <n> -pin <pin>
  wallet          show the wallet balance
  history         list transfers
  profile         show the profile
  update-profile  change name and email
  change-pin      rotate the transaction PIN
  reset-password  request a password reset mail
  admin-users     list all users (admin)
  admin-topup     credit a wallet: -user <id> -amount <n> (admin)
  version         print the version

global flags:
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	global := flag.NewFlagSet("gowallet", flag.ContinueOnError)
	global.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		global.PrintDefaults()
	}
	configPath := global.String("config", client.SettingsPath(), "settings YAML file")
	envFile := global.String("env", ".env", "dotenv file loaded before the environment")
	server := global.String("server", "", "wallet service base URL")
	store := global.String("store", "", "credential store: file, sqlite, redis or memory")
	storePath := global.String("store-path", "", "credential file or database path")
	redisAddr := global.String("redis", "", "redis address for the redis store")
	logLevel := global.String("log-level", "", "log level: "+logging.LevelNames())
	logFormat := global.String("log-format", "", "log format: text or json")
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	if global.NArg() == 0 {
		global.Usage()
		return exitUsage
	}
	cmd, cmdArgs := global.Arg(0), global.Args()[1:]
	if cmd == "version" {
		fmt.Println(version.Full())
		return exitOK
	}

	settings := client.LoadSettings(*configPath)
	if err := settings.ApplyEnv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	overrides := map[string]struct {
		val *string
		dst *string
	}{
		"server":     {server, &settings.Server},
		"store":      {store, &settings.Store},
		"store-path": {storePath, &settings.StorePath},
		"redis":      {redisAddr, &settings.RedisAddr},
		"log-level":  {logLevel, &settings.LogLevel},
		"log-format": {logFormat, &settings.LogFormat},
	}
	global.Visit(func(f *flag.Flag) {
		if o, ok := overrides[f.Name]; ok {
			*o.dst = *o.val
		}
	})

	if err := logging.Setup(logging.Options{Level: settings.LogLevel, Format: settings.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		return exitUsage
	}

	eng, err := client.NewEngine(client.Options{Settings: settings})
	if err != nil {
		slog.Error("start client", "err", err)
		return exitFailed
	}
	defer func() {
		if err := eng.Close(); err != nil {
			slog.Error("close client", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		global.Usage()
		return exitUsage
	}
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	return c(ctx, eng, fs, cmdArgs)
}

type command func(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int

var commands = map[string]command{
	"register":       cmdRegister,
	"login":          cmdLogin,
	"logout":         cmdLogout,
	"whoami":         cmdWhoami,
	"dashboard":      cmdDashboard,
	"pay":            cmdPay,
	"wallet":         cmdWallet,
	"history":        cmdHistory,
	"profile":        cmdProfile,
	"update-profile": cmdUpdateProfile,
	"change-pin":     cmdChangePIN,
	"reset-password": cmdResetPassword,
	"admin-users":    cmdAdminUsers,
	"admin-topup":    cmdAdminTopUp,
}

// fail prints err and maps it to an exit code. Gate redirects get their own code.
func fail(err error) int {
	if errors.Is(err, client.ErrRedirected) {
		fmt.Fprintln(os.Stderr, strings.TrimPrefix(err.Error(), "client: "))
		return exitRedirected
	}
	fmt.Fprintln(os.Stderr, err)
	return exitFailed
}

func required(fs *flag.FlagSet, names ...string) bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	var missing []string
	for _, n := range names {
		if !set[n] {
			missing = append(missing, "-"+n)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "%s: missing %s\n", fs.Name(), strings.Join(missing, ", "))
		fs.PrintDefaults()
		return false
	}
	return true
}
