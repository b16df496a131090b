package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/NicolasHaas/gowallet/pkg/client"
	"github.com/NicolasHaas/gowallet/pkg/flow"
	"github.com/NicolasHaas/gowallet/pkg/session"
)

// report prints a view result and returns the matching exit code.
func report(res flow.Result) int {
	switch res.Kind {
	case flow.Success, flow.NoChange:
		fmt.Println(res.Message)
		return exitOK
	case flow.Warning:
		fmt.Println(res.Message)
		return exitUnclear
	default:
		fmt.Fprintln(os.Stderr, res.Message)
		return exitFailed
	}
}

func cmdRegister(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	var form client.RegisterForm
	fs.StringVar(&form.Name, "name", "", "full name")
	fs.StringVar(&form.Email, "email", "", "email address")
	fs.StringVar(&form.Password, "password", "", "password")
	fs.StringVar(&form.ConfirmPassword, "confirm", "", "password confirmation (defaults to -password)")
	fs.StringVar(&form.TransactionPIN, "pin", "", "4-digit transaction PIN")
	if fs.Parse(args) != nil {
		return exitUsage
	}
	if form.ConfirmPassword == "" {
		form.ConfirmPassword = form.Password
	}
	res, errs := eng.Register(ctx, form)
	for _, f := range errs.Fields() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", f, errs[f])
	}
	return report(res)
}

func cmdLogin(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	email := fs.String("email", "", "email address")
	password := fs.String("password", os.Getenv("GOWALLET_PASSWORD"), "password (or GOWALLET_PASSWORD)")
	if fs.Parse(args) != nil {
		return exitUsage
	}
	return report(eng.Login(ctx, *email, *password))
}

func cmdLogout(_ context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	if fs.Parse(args) != nil {
		return exitUsage
	}
	if err := eng.Logout(); err != nil {
		return fail(err)
	}
	fmt.Println("Logged out.")
	return exitOK
}

func cmdWhoami(_ context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	if fs.Parse(args) != nil {
		return exitUsage
	}
	s := eng.Session()
	if !s.Authenticated() {
		fmt.Fprintln(os.Stderr, "Not logged in.")
		return exitFailed
	}
	fmt.Printf("%s <%s> (%s) id=%s\n", s.Principal.Name, s.Principal.Email, s.Role, s.Principal.ID)
	if exp, ok := session.TokenExpiry(s.Token); ok {
		fmt.Printf("token expires %s (%s)\n", exp.Local().Format(time.RFC1123), time.Until(exp).Truncate(time.Second))
	}
	return exitOK
}

func cmdDashboard(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	if fs.Parse(args) != nil {
		return exitUsage
	}
	d, err := eng.OpenDashboard(ctx)
	if err != nil {
		return fail(err)
	}
	defer d.Close()
	st := d.State()
	fmt.Printf("Balance: %s\n\n", st.Balance.StringFixed(2))
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
	for _, u := range st.Counterparties {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.Name, u.Email)
	}
	_ = tw.Flush()
	return exitOK
}

func cmdPay(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	to := fs.String("to", "", "recipient user id")
	amount := fs.String("amount", "", "amount to send")
	pin := fs.String("pin", "", "4-digit transaction PIN")
	if fs.Parse(args) != nil {
		return exitUsage
	}
	d, err := eng.OpenDashboard(ctx)
	if err != nil {
		return fail(err)
	}
	defer d.Close()
	d.SelectByID(*to)
	d.SetAmount(*amount)
	d.SetPIN(*pin)
	res := d.Submit(ctx)
	code := report(res)
	if res.Kind == flow.Success || res.Kind == flow.Warning {
		fmt.Printf("Balance: %s\n", d.State().Balance.StringFixed(2))
	}
	return code
}

func cmdWallet(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	if fs.Parse(args) != nil {
		return exitUsage
	}
	v, err := eng.OpenWallet(ctx)
	if err != nil {
		if v != nil && v.Error() != "" {
			fmt.Fprintln(os.Stderr, v.Error())
			return exitFailed
		}
		return fail(err)
	}
	bal, _ := v.Balance()
	fmt.Printf("Balance: %s\n", bal.StringFixed(2))
	return exitOK
}

func cmdHistory(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	if fs.Parse(args) != nil {
		return exitUsage
	}
	v, err := eng.OpenHistory(ctx)
	if err != nil {
		if v != nil && v.Error() != "" {
			fmt.Fprintln(os.Stderr, v.Error())
			return exitFailed
		}
		return fail(err)
	}
	txs := v.Transactions()
	if len(txs) == 0 {
		fmt.Println("No transactions yet.")
		return exitOK
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tFROM\tTO\tAMOUNT")
	for _, t := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Date.Local().Format("2006-01-02 15:04"), t.Sender.Name, t.Receiver.Name, t.Amount.StringFixed(2))
	}
	_ = tw.Flush()
	return exitOK
}

func cmdProfile(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	if fs.Parse(args) != nil {
		return exitUsage
	}
	v, err := eng.OpenProfile(ctx)
	if err != nil {
		if v != nil && v.State().LoadError != "" {
			fmt.Fprintln(os.Stderr, v.State().LoadError)
			return exitFailed
		}
		return fail(err)
	}
	st := v.State()
	fmt.Printf("Name:    %s\nEmail:   %s\nBalance: %s\n", st.Name, st.Email, st.Balance.StringFixed(2))
	return exitOK
}

func cmdUpdateProfile(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	name := fs.String("name", "", "new full name (default: unchanged)")
	email := fs.String("email", "", "new email (default: unchanged)")
	if fs.Parse(args) != nil {
		return exitUsage
	}
	v, err := eng.OpenProfile(ctx)
	if err != nil {
		return fail(err)
	}
	defer v.Close()
	st := v.State()
	if *name == "" {
		*name = st.Name
	}
	if *email == "" {
		*email = st.Email
	}
	return report(v.UpdateProfile(ctx, *name, *email))
}

func cmdChangePIN(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	current := fs.String("current", "", "current PIN")
	next := fs.String("new", "", "new PIN")
	confirm := fs.String("confirm", "", "new PIN again")
	if fs.Parse(args) != nil {
		return exitUsage
	}
	v, err := eng.OpenProfile(ctx)
	if err != nil {
		return fail(err)
	}
	defer v.Close()
	return report(v.ChangePIN(ctx, *current, *next, *confirm))
}

func cmdResetPassword(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	email := fs.String("email", "", "account email")
	if fs.Parse(args) != nil {
		return exitUsage
	}
	if !required(fs, "email") {
		return exitUsage
	}
	return report(eng.RequestPasswordReset(ctx, *email))
}

func cmdAdminUsers(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	if fs.Parse(args) != nil {
		return exitUsage
	}
	users, err := eng.OpenAdminDashboard(ctx)
	if err != nil {
		return fail(err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	_ = tw.Flush()
	return exitOK
}

func cmdAdminTopUp(ctx context.Context, eng *client.Engine, fs *flag.FlagSet, args []string) int {
	user := fs.String("user", "", "user id to credit")
	amount := fs.String("amount", "", "amount to add")
	if fs.Parse(args) != nil {
		return exitUsage
	}
	v, err := eng.OpenAdminTopUp(ctx)
	if err != nil {
		return fail(err)
	}
	defer v.Close()
	return report(v.TopUp(ctx, *user, *amount))
}
