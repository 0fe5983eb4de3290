package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/client/api"
	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/netx"
)

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

func (a *App) Root(ctx context.Context) {

	fmt.Fprintln(a.out, "Welcome to taskkeeper CLI (type 'help' for commands)")

	for {
		fmt.Fprintf(a.out, "tk %s> ", a.getStatus())
		line, err := a.reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}

		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(a.out, "Available commands: me, add, list [done|open], done <id>, undo <id>, delete <id>, avatar <file>, avatar-url, logout, logout-all, delete-account, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: register, login, exit")
			}
		case "register":
			a.register(ctx)
		case "login":
			a.login(ctx)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			if !a.isLoggedIn() {
				fmt.Fprintln(a.out, "Please login first")
				continue
			}
			a.private(ctx, cmd, args)
		}

		if err != nil {
			return
		}
	}
}

func (a *App) private(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "me":
		a.me(ctx)
	case "add":
		a.add(ctx, strings.Join(args, " "))
	case "list", "l":
		a.list(ctx, args)
	case "done", "undo":
		if len(args) != 1 {
			fmt.Fprintf(a.out, "Usage: %s <id>\n", cmd)
			return
		}
		a.setCompleted(ctx, args[0], cmd == "done")
	case "delete":
		if len(args) != 1 {
			fmt.Fprintln(a.out, "Usage: delete <id>")
			return
		}
		a.report(a.api.DeleteTask(ctx, args[0]), "Task deleted")
	case "avatar":
		if len(args) != 1 {
			fmt.Fprintln(a.out, "Usage: avatar <file>")
			return
		}
		a.uploadAvatar(ctx, args[0])
	case "avatar-url":
		url, err := a.api.AvatarURL(ctx)
		a.report(err, url)
	case "logout":
		a.report(a.api.Logout(ctx), "Logged out")
		a.userName = ""
	case "logout-all":
		a.report(a.api.LogoutAll(ctx), "Logged out everywhere")
		a.userName = ""
	case "delete-account":
		if !Confirm(a.reader, "Delete your account and all tasks?", a.out) {
			return
		}
		a.report(a.api.DeleteAccount(ctx), "Account deleted")
		a.userName = ""
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
	}
}

// report prints err in user terms, or ok when err is nil.
func (a *App) report(err error, ok string) {
	switch {
	case err == nil:
		fmt.Fprintln(a.out, ok)
	case errors.Is(err, common.ErrorUnauthorized):
		fmt.Fprintln(a.out, "Session expired, please login again")
		a.api.SetToken("")
		a.userName = ""
	case errors.Is(err, common.ErrorNotFound):
		fmt.Fprintln(a.out, "Not found")
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
}

func (a *App) register(ctx context.Context) {
	name, err := GetSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	ageText, err := GetSimpleText(a.reader, "Enter age (optional)", a.out)
	if err != nil {
		return
	}

	age := 0
	if ageText != "" {
		if age, err = strconv.Atoi(ageText); err != nil {
			fmt.Fprintln(a.out, "Age must be a number")
			return
		}
	}

	u, err := a.api.Register(ctx, name, email, password, age)
	if err != nil {
		a.report(err, "")
		return
	}
	a.userName = u.Name
	fmt.Fprintf(a.out, "Welcome, %s!\n", u.Name)
}

func (a *App) login(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	u, err := a.api.Login(ctx, email, password)
	if errors.Is(err, common.ErrorUnauthorized) {
		fmt.Fprintln(a.out, "Unable to login")
		return
	}
	if err != nil {
		a.report(err, "")
		return
	}
	a.userName = u.Name
	fmt.Fprintf(a.out, "Logged in as %s\n", u.Name)
}

func (a *App) me(ctx context.Context) {
	u, err := a.api.Me(ctx)
	if err != nil {
		a.report(err, "")
		return
	}
	fmt.Fprintf(a.out, "%s <%s> age %d, avatar: %t\n", u.Name, u.Email, u.Age, u.HasAvatar)
}

func (a *App) add(ctx context.Context, description string) {
	if description == "" {
		var err error
		if description, err = GetSimpleText(a.reader, "Enter description", a.out); err != nil {
			return
		}
	}

	t, err := a.api.CreateTask(ctx, description)
	if err != nil {
		a.report(err, "")
		return
	}
	fmt.Fprintf(a.out, "Created %s\n", t.ID)
}

func (a *App) list(ctx context.Context, args []string) {
	var opts api.ListOptions
	if len(args) > 0 {
		switch args[0] {
		case "done":
			v := true
			opts.Completed = &v
		case "open":
			v := false
			opts.Completed = &v
		default:
			fmt.Fprintln(a.out, "Usage: list [done|open]")
			return
		}
	}

	tasks, err := a.api.ListTasks(ctx, opts)
	if err != nil {
		a.report(err, "")
		return
	}
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks")
		return
	}
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(a.out, "[%s] %s  %s\n", mark, t.ID, t.Description)
	}
}

func (a *App) setCompleted(ctx context.Context, id string, done bool) {
	t, err := a.api.SetCompleted(ctx, id, done)
	if err != nil {
		a.report(err, "")
		return
	}
	fmt.Fprintf(a.out, "Updated %s\n", t.ID)
}

func (a *App) uploadAvatar(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	url, err := a.api.AvatarUploadURL(ctx)
	if err != nil {
		a.report(err, "")
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	err = netx.UploadToPresignedURL(ctx, a.api.HTTPClient(), url, contentType, data)
	a.report(err, "Avatar uploaded")
}
