package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"chatcmd/internal/app"
	"chatcmd/internal/app/events"
	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/config"
	"chatcmd/internal/infrastructure/logging"
	"chatcmd/internal/infrastructure/metrics"
	sqlitestorage "chatcmd/internal/infrastructure/persistence/sqlite"
	"chatcmd/internal/infrastructure/seed"
	consoleadapter "chatcmd/internal/interface/adapters/console"
	kickadapter "chatcmd/internal/interface/adapters/kick"
	twitchadapter "chatcmd/internal/interface/adapters/twitch"
	ws "chatcmd/internal/interface/api/ws"
	"chatcmd/internal/interface/outs"
	"chatcmd/internal/usecase/commands"
	"chatcmd/internal/usecase/handle_message"
)

type Options struct {
	// Config is loaded from the environment when nil.
	Config *config.Config
	// Console is bound as a chat transport; the caller runs its Start loop.
	Console *consoleadapter.Adapter
	// SkipPlatforms leaves Twitch and Kick disconnected even when configured.
	SkipPlatforms bool
	SkipHTTP      bool
}

type Runtime struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config

	core       *core
	bus        *events.Bus
	multiOut   *outs.MultiSender
	platform   *app.PlatformManager
	wsServer   *ws.Server
	dispatcher func(context.Context, domain.Message) error

	wg      sync.WaitGroup
	started bool
}

// core is the storage and command stack shared by serve, console and import.
type core struct {
	store   *sqlitestorage.Store
	manager *commands.CustomCommandManager
	router  *commands.Router
	service *commands.Service
}

func openCore(ctx context.Context, cfg *config.Config) (*core, error) {
	store, err := sqlitestorage.NewStore(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	manager, err := commands.NewCustomCommandManager(ctx, store)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("custom commands: %w", err)
	}
	manager.SetGroupResolver(store)

	router := commands.NewRouter(cfg.CommandPrefix)
	router.Register(commands.NewPingCommand())
	router.Register(commands.NewListCommandsCommand(manager))
	router.Register(commands.NewManageCustomCommand(manager, commands.NewEngine(cfg.CommandPrefix), store))
	router.SetCustomManager(manager)

	return &core{
		store:   store,
		manager: manager,
		router:  router,
		service: commands.NewService(manager, cfg.CommandPrefix),
	}, nil
}

func loadConfig(cfg *config.Config) (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}
	loaded, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return loaded, nil
}

func Start(ctx context.Context, opts Options) (*Runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return nil, err
	}

	runtimeCtx, cancel := context.WithCancel(ctx)

	c, err := openCore(runtimeCtx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	metrics.Init()

	bus := events.NewBus()
	c.manager.SetChangeNotifier(func(context.Context) {
		bus.Publish(events.TopicCommandsChanged, events.NewCommandsChangedDTO("configuration"))
	})

	if cfg.SeedFile != "" && len(c.manager.ListAll(runtimeCtx)) == 0 {
		if _, err := importSeed(runtimeCtx, c, cfg, cfg.SeedFile); err != nil {
			logging.Warn().Err(err).Str("file", cfg.SeedFile).Msg("runtime: seed skipped")
		}
	}

	multiOut := outs.NewMultiSender()
	platformMgr := app.NewPlatformManager(app.ManagerConfig{
		Context:  runtimeCtx,
		MultiOut: multiOut,
	})

	run := &Runtime{
		ctx:      runtimeCtx,
		cancel:   cancel,
		cfg:      cfg,
		core:     c,
		bus:      bus,
		multiOut: multiOut,
		platform: platformMgr,
	}

	uc := handle_message.NewInteractor(multiOut, c.router,
		handle_message.WithIgnoredUsers(cfg.IgnoreUsers...),
	)
	run.dispatcher = func(ctx context.Context, msg domain.Message) error {
		bus.Publish(events.TopicChatMessage, events.NewChatMessageDTO(msg))
		return uc.Handle(ctx, msg)
	}
	platformMgr.SetHandler(run.dispatcher)

	if opts.Console != nil {
		platformMgr.AddConsole(opts.Console)
	}

	if !opts.SkipPlatforms {
		run.startPlatforms()
	}

	if !opts.SkipHTTP {
		run.startHTTP()
	}

	run.started = true
	logging.Info().
		Str("prefix", cfg.CommandPrefix).
		Int("custom_commands", len(c.manager.ListAll(runtimeCtx))).
		Msg("runtime: started")
	return run, nil
}

func (r *Runtime) startPlatforms() {
	if r.cfg.TwitchEnabled() {
		r.platform.AddTwitch(twitchadapter.NewAdapter(twitchadapter.Config{
			Username:   r.cfg.TwitchUsername,
			OAuthToken: formatTwitchOAuthToken(r.cfg.TwitchToken),
			Channels:   r.cfg.TwitchChannels,
		}))
		if err := r.platform.Launch(domain.PlatformTwitch); err != nil {
			logging.Error().Err(err).Msg("runtime: twitch launch")
		}
	} else if r.cfg.TwitchUsername == "" || r.cfg.TwitchToken == "" {
		logging.Warn().Msg("runtime: twitch credentials not set, twitch chat disabled")
	}

	if r.cfg.KickEnabled() {
		r.platform.AddKick(kickadapter.NewAdapter(kickadapter.Config{
			AccessToken:       r.cfg.KickToken,
			BroadcasterUserID: r.cfg.KickBroadcasterUserID,
			ChatroomID:        r.cfg.KickChatroomID,
		}))
		if err := r.platform.Launch(domain.PlatformKick); err != nil {
			logging.Error().Err(err).Msg("runtime: kick launch")
		}
	}

	if len(r.platform.Platforms()) == 0 {
		logging.Warn().Msg("runtime: no chat platform configured")
	}
}

func (r *Runtime) startHTTP() {
	wsServer := ws.NewServer(ws.Config{
		Addr:     r.cfg.WSAddr,
		Commands: r.core.service,
		Groups:   r.core.store,
		Metrics:  metrics.Handler(),
	})
	wsServer.SetHandler(r.dispatcher)
	r.wsServer = wsServer

	changes, unsubscribeChanges := r.bus.Subscribe(events.TopicCommandsChanged)
	chat, unsubscribeChat := r.bus.Subscribe(events.TopicChatMessage)

	r.wg.Add(3)
	go func() {
		defer r.wg.Done()
		defer unsubscribeChanges()
		wsServer.Forward(r.ctx, events.TopicCommandsChanged, changes)
	}()
	go func() {
		defer r.wg.Done()
		defer unsubscribeChat()
		wsServer.Forward(r.ctx, events.TopicChatMessage, chat)
	}()
	go func() {
		defer r.wg.Done()
		if err := wsServer.Start(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("runtime: ws server")
		}
	}()
}

func (r *Runtime) Stop() error {
	if r == nil || !r.started {
		return nil
	}
	r.cancel()
	r.platform.Shutdown()
	r.wg.Wait()
	r.bus.Close()
	r.started = false
	if err := r.core.store.Close(); err != nil {
		return fmt.Errorf("runtime: close store: %w", err)
	}
	logging.Info().Msg("runtime: stopped")
	return nil
}

func (r *Runtime) Done() <-chan struct{} {
	return r.ctx.Done()
}

func (r *Runtime) Bus() *events.Bus {
	if r == nil {
		return nil
	}
	return r.bus
}

func (r *Runtime) CommandService() *commands.Service {
	if r == nil {
		return nil
	}
	return r.core.service
}

func (r *Runtime) Config() *config.Config {
	if r == nil {
		return nil
	}
	return r.cfg
}

func (r *Runtime) DispatchMessage(ctx context.Context, msg domain.Message) error {
	if r == nil || r.dispatcher == nil {
		return fmt.Errorf("dispatcher unavailable")
	}
	if ctx == nil {
		ctx = r.ctx
	}
	return r.dispatcher(ctx, msg)
}

// Import loads a YAML seed file into the store without starting any
// transport.
func Import(ctx context.Context, cfg *config.Config, path string) (seed.Result, error) {
	cfg, err := loadConfig(cfg)
	if err != nil {
		return seed.Result{}, err
	}
	c, err := openCore(ctx, cfg)
	if err != nil {
		return seed.Result{}, err
	}
	defer c.store.Close()

	return importSeed(ctx, c, cfg, path)
}

func importSeed(ctx context.Context, c *core, cfg *config.Config, path string) (seed.Result, error) {
	file, err := seed.Load(path)
	if err != nil {
		return seed.Result{}, err
	}
	return seed.Apply(ctx, file, c.manager, c.store, cfg.CommandPrefix, commands.SystemActor)
}

func formatTwitchOAuthToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "oauth:") {
		return token
	}
	return "oauth:" + token
}
