package ops

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/opereon/opereon/internal/config"
	"github.com/opereon/opereon/internal/engine"
	"github.com/opereon/opereon/internal/exec/rsync"
	"github.com/opereon/opereon/internal/exec/ssh"
	"github.com/opereon/opereon/internal/model"
	"github.com/opereon/opereon/internal/model/template"
)

// FileCopyExecOp copies (and, if Template is set, first renders) Src to Dest
// on Host — rsync when Host is a bare local path (no SSH destination
// configured), SFTP via internal/exec/ssh otherwise, per SPEC_FULL.md §12's
// "renders (optional template via text/template, the ..." FileCopyExec
// description.
type FileCopyExecOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Manifest *model.Manifest
	Host     model.Host
	Src      string
	Dest     string
	Template bool
}

func (o FileCopyExecOp) Done(ctx context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	src := o.Src
	if o.Template {
		raw, err := os.ReadFile(o.Src)
		if err != nil {
			return Outcome{}, engine.NewFailure(fmt.Sprintf("read template %s", o.Src), err)
		}
		rendered, err := template.Render(string(raw), o.Manifest, map[string]interface{}{"host": o.Host})
		if err != nil {
			return Outcome{}, engine.NewFailure("render template", err)
		}
		tmp, err := os.CreateTemp("", "opereon-filecopy-*")
		if err != nil {
			return Outcome{}, engine.NewFailure("create rendered temp file", err)
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.WriteString(rendered); err != nil {
			tmp.Close()
			return Outcome{}, engine.NewFailure("write rendered temp file", err)
		}
		tmp.Close()
		src = tmp.Name()
	}

	if o.Host.SSHDest == "" {
		if _, err := rsync.Sync(ctx, rsync.Params{Source: src, Destination: o.Dest}); err != nil {
			return Outcome{}, engine.NewFailure("rsync file copy", err)
		}
		return File(o.Dest), nil
	}

	dest := ssh.Dest{Host: o.Host.Hostname, AuthMethod: ssh.AuthMethodAgent, User: "root", Port: 22}
	if guard, err := engine.ServiceFor[*config.Config](eng.Registry()); err == nil {
		defaults := guard.Value().SSHDefaults
		dest.User = defaults.User
		dest.Port = defaults.Port
		dest.ConnectTimeout = defaults.ConnectTimeout
		dest.StrictHostKeyChecking = defaults.StrictHostKeyChecking
		guard.Release()
	}

	client, err := ssh.Dial(ctx, dest)
	if err != nil {
		return Outcome{}, engine.NewFailure("dial ssh destination", err)
	}
	defer client.Close()

	f, err := os.Open(src)
	if err != nil {
		return Outcome{}, engine.NewFailure(fmt.Sprintf("open %s", src), err)
	}
	defer f.Close()

	if err := client.Upload(f, o.Dest, 0o644); err != nil {
		return Outcome{}, engine.NewFailure("sftp upload", err)
	}
	return File(o.Dest), nil
}

// RemoteExecOp selects hosts matching Expr (via internal/model.Query) and
// runs Command on each, fanned out with a Parallel combinator — SPEC_FULL.md
// §4.8's expression-selected remote command execution.
type RemoteExecOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Manifest *model.Manifest
	Expr     string
	Command  string
}

func (o RemoteExecOp) Done(ctx context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	hosts, err := o.selectHosts()
	if err != nil {
		return Outcome{}, err
	}
	if len(hosts) == 0 {
		return Empty(), nil
	}

	children := make([]engine.Child[Outcome], len(hosts))
	for i, h := range hosts {
		children[i] = engine.Child[Outcome]{
			Name: h.Hostname,
			Impl: TaskExecOp{Task: model.Task{Kind: model.TaskCommandKind, Command: o.Command}, Host: h},
		}
	}

	handle, err := eng.Enqueue(fmt.Sprintf("remote-exec:%s", o.Expr), engine.NewParallel(children, CombineMany))
	if err != nil {
		return Outcome{}, err
	}
	return handle.Wait(ctx)
}

func (o RemoteExecOp) selectHosts() ([]model.Host, error) {
	if strings.TrimSpace(o.Expr) == "" || o.Expr == "hosts" {
		hosts := make([]model.Host, 0, len(o.Manifest.Hosts))
		for _, h := range o.Manifest.Hosts {
			hosts = append(hosts, h)
		}
		return hosts, nil
	}

	values, err := model.Query(o.Manifest, o.Expr)
	if err != nil {
		return nil, engine.NewFailure("evaluate host selector", err)
	}

	hosts := make([]model.Host, 0, len(values))
	for _, v := range values {
		entry, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		hostname, _ := entry["hostname"].(string)
		sshDest, _ := entry["ssh_dest"].(string)
		if hostname == "" {
			continue
		}
		hosts = append(hosts, model.Host{Hostname: hostname, SSHDest: sshDest})
	}
	return hosts, nil
}
