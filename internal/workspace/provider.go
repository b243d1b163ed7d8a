package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vanzue/toptoolbar-sub001/internal/config"
	"github.com/vanzue/toptoolbar-sub001/internal/logging"
	"github.com/vanzue/toptoolbar-sub001/internal/monitoring"
	"github.com/vanzue/toptoolbar-sub001/internal/store"
	"github.com/vanzue/toptoolbar-sub001/internal/types"
)

// ProviderID is the stable registry key of the workspace provider.
const ProviderID = "workspaces"

const (
	// CaptureActionID snapshots the current session into a new workspace.
	CaptureActionID = "workspaces.capture"
	// DeleteActionID removes a saved workspace.
	DeleteActionID = "workspaces.delete"

	groupName = "Workspaces"
	changeBuf = 16
	providerV = "0.3.0"
)

// Collaborators are the OS services the provider consumes. Any field may
// be nil; the affected behavior degrades.
type Collaborators struct {
	Launcher types.Launcher
	Windows  types.WindowEnumerator
	Icons    types.IconResolver
	Notifier types.Notifier
}

// Provider is the workspace snapshot/restore provider. Launch actions are
// one per saved workspace; capture and delete are command actions.
type Provider struct {
	store    *store.Store
	cache    *Cache
	watcher  *store.Watcher
	launcher types.Launcher
	windows  types.WindowEnumerator
	icons    types.IconResolver
	notifier types.Notifier
	changes  chan types.ChangeEvent
	log      *logging.Logger

	closeMu sync.Mutex
	closed  bool
}

// NewProvider wires the provider: cache over the store, file watcher with
// debounced invalidation feeding the cache, change channel feeding the
// runtime.
func NewProvider(s *store.Store, collab Collaborators, cfg config.StorageConfig, log *logging.Logger, metrics *monitoring.Metrics) (*Provider, error) {
	p := &Provider{
		store:    s,
		launcher: collab.Launcher,
		windows:  collab.Windows,
		icons:    collab.Icons,
		notifier: collab.Notifier,
		changes:  make(chan types.ChangeEvent, changeBuf),
		log:      log,
	}
	p.cache = NewCache(s, p.emitUpdated, log, metrics)

	watcher, err := store.NewWatcher(
		s.Dir(),
		[]string{store.DefinitionsFile, store.ButtonsFile},
		cfg.DebounceInterval,
		func() {
			if err := p.cache.Refresh(); err != nil {
				log.Warn("workspace cache refresh failed", zap.Error(err))
			}
		},
		log,
	)
	if err != nil {
		return nil, err
	}
	p.watcher = watcher
	return p, nil
}

// ID implements runtime.Provider.
func (p *Provider) ID() string { return ProviderID }

// Info implements runtime.Provider.
func (p *Provider) Info() types.ProviderInfo {
	return types.ProviderInfo{ID: ProviderID, Name: "Workspaces", Version: providerV}
}

// Changes exposes the provider's change notifications to the runtime.
func (p *Provider) Changes() <-chan types.ChangeEvent { return p.changes }

// Close stops the file watcher and the change stream.
func (p *Provider) Close() error {
	err := p.watcher.Close()

	p.closeMu.Lock()
	if !p.closed {
		p.closed = true
		close(p.changes)
	}
	p.closeMu.Unlock()
	return err
}

// Discover yields one launch action per enabled workspace plus the
// capture command. Recomputed from the cache on every call.
func (p *Provider) Discover(ctx context.Context) ([]types.ActionDescriptor, error) {
	records, _, err := p.cache.Records()
	if err != nil {
		return nil, err
	}

	descriptors := make([]types.ActionDescriptor, 0, len(records)+1)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !rec.Enabled {
			continue
		}
		descriptors = append(descriptors, types.ActionDescriptor{
			ID:         rec.ID,
			Title:      rec.Name,
			Kind:       types.ActionLaunch,
			GroupHint:  groupName,
			Order:      rec.SortOrder,
			Icon:       rec.IconSignature,
			CanExecute: true,
			Keywords:   []string{"workspace", strings.ToLower(rec.Name)},
		})
	}

	descriptors = append(descriptors, types.ActionDescriptor{
		ID:         CaptureActionID,
		Title:      "Capture workspace",
		Subtitle:   "Snapshot the currently running applications",
		Kind:       types.ActionCommand,
		GroupHint:  groupName,
		Order:      float64(len(records)) + 1,
		CanExecute: p.windows != nil,
		Keywords:   []string{"workspace", "capture", "snapshot"},
	})
	return descriptors, nil
}

// CreateGroup builds the toolbar group, applying persisted icon and
// ordering overrides from the button config store.
func (p *Provider) CreateGroup(ctx context.Context) (*types.ButtonGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, _, err := p.cache.Records()
	if err != nil {
		return nil, err
	}

	group := &types.ButtonGroup{Name: groupName}
	for _, rec := range records {
		group.Buttons = append(group.Buttons, types.ToolbarButton{
			ProviderID: ProviderID,
			ActionID:   rec.ID,
			Title:      rec.Name,
			Icon:       rec.IconSignature,
			Enabled:    rec.Enabled,
			Order:      rec.SortOrder,
		})
	}
	return group, nil
}

// Invoke executes a workspace action. Expected failures (unknown action,
// nothing to capture) come back as Ok=false; only cancellation escalates.
func (p *Provider) Invoke(ctx context.Context, actionID string, args map[string]interface{}, progress types.ProgressSink) (*types.ActionResult, error) {
	switch actionID {
	case CaptureActionID:
		return p.capture(ctx, args)
	case DeleteActionID:
		return p.deleteWorkspace(args)
	default:
		return p.launch(ctx, actionID, progress)
	}
}

// capture snapshots the running applications and monitor topology into a
// new workspace definition.
func (p *Provider) capture(ctx context.Context, args map[string]interface{}) (*types.ActionResult, error) {
	if p.windows == nil {
		return &types.ActionResult{Ok: false, Message: "window enumeration unavailable"}, nil
	}

	windows, err := p.windows.Windows(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &types.ActionResult{Ok: false, Message: fmt.Sprintf("failed to enumerate windows: %v", err)}, nil
	}
	monitors, err := p.windows.Monitors(ctx)
	if err != nil {
		p.log.Warn("monitor enumeration failed, capturing without topology", zap.Error(err))
		monitors = nil
	}

	apps := make([]types.ApplicationDefinition, 0, len(windows))
	for _, w := range windows {
		def := DefinitionFromWindow(w)
		if def == (types.ApplicationDefinition{}) {
			continue
		}
		apps = append(apps, def)
	}
	if len(apps) == 0 {
		return &types.ActionResult{Ok: false, Message: "no applications to capture"}, nil
	}

	name, _ := args["name"].(string)
	if name == "" {
		name = "Workspace " + time.Now().Format("2006-01-02 15:04")
	}

	def := types.WorkspaceDefinition{
		ID:           uuid.New().String(),
		Name:         name,
		CreationTime: time.Now(),
		Applications: apps,
		Monitors:     monitors,
	}
	if err := p.store.UpsertDefinition(def); err != nil {
		return &types.ActionResult{Ok: false, Message: fmt.Sprintf("failed to save workspace: %v", err)}, nil
	}

	records, _, _ := p.cache.Records()
	if err := p.store.UpsertButtonConfig(types.WorkspaceButtonConfig{
		WorkspaceID: def.ID,
		Icon:        p.resolveIcon(ctx, apps),
		Enabled:     true,
		SortOrder:   float64(len(records)),
	}); err != nil {
		return &types.ActionResult{Ok: false, Message: fmt.Sprintf("failed to save button config: %v", err)}, nil
	}

	// Re-read and diff rather than assuming our own write was the only
	// change; another instance may have modified the files concurrently.
	if err := p.cache.Refresh(); err != nil {
		p.log.Warn("cache refresh after capture failed", zap.Error(err))
	}

	p.log.Info("workspace captured",
		zap.String("workspace", def.ID),
		zap.Int("applications", len(apps)))
	msg := fmt.Sprintf("captured %d applications into %q", len(apps), name)
	p.notify("Workspace captured", msg)
	return &types.ActionResult{Ok: true, Message: msg}, nil
}

// resolveIcon derives the toolbar icon for a freshly captured workspace
// from the first application with a resolvable path.
func (p *Provider) resolveIcon(ctx context.Context, apps []types.ApplicationDefinition) string {
	if p.icons == nil {
		return ""
	}
	for _, app := range apps {
		if app.Path == "" {
			continue
		}
		icon, err := p.icons.Resolve(ctx, app.Path)
		if err != nil {
			p.log.Warn("icon resolution failed", zap.String("path", app.Path), zap.Error(err))
			continue
		}
		if icon != "" {
			return icon
		}
	}
	return ""
}

func (p *Provider) notify(title, message string) {
	if p.notifier != nil {
		p.notifier.Notify(title, message)
	}
}

// deleteWorkspace removes a saved workspace and its button config.
func (p *Provider) deleteWorkspace(args map[string]interface{}) (*types.ActionResult, error) {
	id, _ := args["workspace_id"].(string)
	if id == "" {
		return &types.ActionResult{Ok: false, Message: "workspace_id is required"}, nil
	}
	if err := p.store.DeleteDefinition(id); err != nil {
		return &types.ActionResult{Ok: false, Message: fmt.Sprintf("failed to delete workspace: %v", err)}, nil
	}
	if err := p.cache.Refresh(); err != nil {
		p.log.Warn("cache refresh after delete failed", zap.Error(err))
	}
	return &types.ActionResult{Ok: true, Message: "workspace deleted"}, nil
}

// launch restores a workspace: applications whose definitions match a
// live window are skipped, the rest are started through the launcher.
func (p *Provider) launch(ctx context.Context, workspaceID string, progress types.ProgressSink) (*types.ActionResult, error) {
	defs, err := p.store.LoadDefinitions()
	if err != nil {
		return &types.ActionResult{Ok: false, Message: fmt.Sprintf("failed to load workspaces: %v", err)}, nil
	}

	var target *types.WorkspaceDefinition
	for i := range defs {
		if defs[i].ID == workspaceID {
			target = &defs[i]
			break
		}
	}
	if target == nil {
		return &types.ActionResult{Ok: false, Message: fmt.Sprintf("unknown workspace: %s", workspaceID)}, nil
	}
	if p.launcher == nil {
		return &types.ActionResult{Ok: false, Message: "launching is unavailable"}, nil
	}

	var live []types.WindowInfo
	if p.windows != nil {
		live, err = p.windows.Windows(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.log.Warn("window enumeration failed, launching everything", zap.Error(err))
		}
	}

	launched, running, failed := 0, 0, 0
	for i, app := range target.Applications {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if progress != nil {
			progress.Report(float64(i)/float64(len(target.Applications))*100, app.Name)
		}

		if alreadyRunning(live, app) {
			running++
			continue
		}

		command := app.Path
		if command == "" {
			command = app.AppUserModelID
		}
		if command == "" {
			failed++
			p.log.Warn("application has no launchable identity", zap.String("name", app.Name))
			continue
		}
		if err := p.launcher.Launch(ctx, command, nil, ""); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			p.log.Warn("launch failed", zap.String("name", app.Name), zap.Error(err))
			continue
		}
		launched++
	}
	if progress != nil {
		progress.Report(100, "")
	}

	msg := fmt.Sprintf("launched %d applications (%d already running)", launched, running)
	if failed > 0 {
		msg = fmt.Sprintf("%s, %d failed", msg, failed)
	}
	p.notify("Workspace restored", msg)
	return &types.ActionResult{Ok: failed == 0, Message: msg}, nil
}

// alreadyRunning reports whether any live window matches the definition.
func alreadyRunning(live []types.WindowInfo, def types.ApplicationDefinition) bool {
	for _, w := range live {
		if IsMatch(w, def) {
			return true
		}
	}
	return false
}

// DefinitionFromWindow projects a live window into a persistable
// application definition (the capture direction of matching). Browser
// windows with an activation id are treated as PWAs since their process
// path identifies the browser, not the app.
func DefinitionFromWindow(w types.WindowInfo) types.ApplicationDefinition {
	def := types.ApplicationDefinition{
		Name:            w.ProcessName,
		Path:            w.ProcessPath,
		Title:           w.Title,
		AppUserModelID:  w.AppUserModelID,
		PackageFullName: w.PackageFullName,
	}
	if browserProcesses[strings.ToLower(w.ProcessFileName)] && w.AppUserModelID != "" {
		def.PwaAppID = w.AppUserModelID
	}
	return def
}

// emitUpdated forwards a cache invalidation to the runtime as an
// ActionsUpdated event; a full change stream drops the event rather than
// blocking the cache.
func (p *Provider) emitUpdated(affectedIDs []string) {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return
	}

	select {
	case p.changes <- types.ChangeEvent{
		ProviderID:  ProviderID,
		Kind:        types.ChangeActionsUpdated,
		AffectedIDs: affectedIDs,
	}:
	default:
		p.log.Warn("change stream full, dropping workspace update")
	}
}
