package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"iupchat/internal/api"
	"iupchat/internal/auth"
	"iupchat/internal/chat"
	"iupchat/internal/config"
	"iupchat/internal/terminal"
	"iupchat/internal/ui"
	"iupchat/internal/voice"
)

func main() {
	// Load .env (optional) and wire env access for config
	godotenv.Load()
	config.GetEnv = os.Getenv

	cfg := parseFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	display := ui.NewDisplay()
	store := auth.NewStore(cfg.StateDir)
	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, store)
	client.OnSessionExpired(func() {
		display.PrintWarning("Tu sesión expiró. Inicia sesión de nuevo con /login.")
	})

	// Drop a token the server would reject anyway
	if store.IsAuthenticated() && store.TokenExpired() {
		store.Logout()
		display.PrintWarning("Tu sesión anterior expiró.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Backend health check (non-fatal)
	if _, err := client.Health(ctx); err != nil {
		display.PrintWarning(fmt.Sprintf("El backend no responde: %v", err))
		display.PrintInfo("Verifica que el servidor esté activo en " + cfg.APIBaseURL)
	}

	// Voice adapters: probed once, shared for the whole run
	var recognizer voice.Recognizer
	var speaker voice.Speaker
	var session *chat.Session
	if cfg.VoiceEnabled {
		recognizer = voice.NewRecognizer(client, cfg.SpeechLocale)
		speaker = voice.NewSpeaker(client, cfg.TTSVoice, func() {
			if session != nil {
				session.OnPlaybackStopped()
			}
		})
	}
	session = chat.NewSession(client, speaker, cfg.PageLimit)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		session.StopSpeaking()
		display.PrintGoodbye()
		cancel()
		os.Exit(0)
	}()

	display.PrintWelcome(cfg.APIBaseURL, store.User())
	if cfg.Verbose {
		display.PrintInfo(fmt.Sprintf("Timeout: %s — Estado: %s — Voz: %v", cfg.RequestTimeout, cfg.StateDir, cfg.VoiceEnabled))
	}

	// Validate a persisted session and prefetch conversations
	if store.IsAuthenticated() {
		if user, err := client.Me(ctx); err == nil {
			store.SetUser(user)
			if err := session.LoadConversations(ctx); err != nil {
				display.PrintWarning(fmt.Sprintf("No se pudieron cargar las conversaciones: %v", err))
			}
		}
	}

	app := &app{
		cfg:        cfg,
		display:    display,
		store:      store,
		client:     client,
		session:    session,
		recognizer: recognizer,
		speaker:    speaker,
	}
	app.run(ctx)

	display.PrintGoodbye()
}

// parseFlags parses command-line flags over config defaults
func parseFlags() *config.Config {
	cfg := config.NewConfig()

	flag.StringVar(&cfg.APIBaseURL, "api-url", cfg.APIBaseURL, "Chatbot backend base URL")
	flag.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "Session state directory")
	flag.StringVar(&cfg.TTSVoice, "tts-voice", cfg.TTSVoice, "Text-to-speech voice")
	flag.BoolVar(&cfg.VoiceEnabled, "voice", cfg.VoiceEnabled, "Enable voice input/output")
	flag.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Enable verbose logging")

	timeoutSeconds := flag.Int("timeout", 120, "Request timeout in seconds")
	flag.Parse()

	cfg.ParseTimeout(*timeoutSeconds)
	return cfg
}

// app bundles the wired components for the command loop
type app struct {
	cfg        *config.Config
	display    *ui.Display
	store      *auth.Store
	client     *api.Client
	session    *chat.Session
	recognizer voice.Recognizer
	speaker    voice.Speaker
}

// run is the main interactive loop
func (a *app) run(ctx context.Context) {
	for {
		// Surface and clear any pending state error, banner style
		if st := a.session.State(); st.Error != "" {
			a.display.PrintError(fmt.Errorf("%s", st.Error))
			a.session.Dispatch(chat.Action{Type: chat.SetError})
		}

		a.display.PrintAvatar(a.session.State().Avatar)
		a.display.PrintPrompt()
		input, err := terminal.ReadUserInput()
		if err != nil {
			return
		}
		if input == "" {
			continue
		}

		if !strings.HasPrefix(input, "/") {
			if input == "exit" || input == "quit" {
				return
			}
			a.handleSend(ctx, input, chat.InputText)
			continue
		}

		fields := strings.Fields(input)
		command, args := fields[0], fields[1:]
		if command == "/exit" || command == "/quit" {
			return
		}
		a.handleCommand(ctx, command, args)
	}
}

func (a *app) handleCommand(ctx context.Context, command string, args []string) {
	switch command {
	case "/help":
		a.display.PrintHelp(a.store.User().IsAdmin())
	case "/clear":
		a.display.ClearScreen()
		a.display.PrintWelcome(a.cfg.APIBaseURL, a.store.User())

	case "/login":
		a.handleLogin(ctx)
	case "/register":
		a.handleRegister(ctx)
	case "/logout":
		a.store.Logout()
		a.display.PrintSuccess("Sesión cerrada")
	case "/me":
		a.handleMe(ctx)

	case "/new":
		if id, err := a.session.CreateConversation(ctx); err == nil {
			a.display.PrintSuccess("Conversación creada: " + id)
		}
	case "/list", "/conversations":
		if err := a.session.LoadConversations(ctx); err == nil {
			st := a.session.State()
			a.display.PrintConversations(st.Conversations, st.ActiveConversationID)
		}
	case "/select":
		if len(args) != 1 {
			a.display.PrintInfo("Uso: /select <id>")
			return
		}
		if err := a.session.SelectConversation(ctx, args[0]); err == nil {
			if conv, err := a.client.GetConversation(ctx, args[0]); err == nil && conv.Title != nil && *conv.Title != "" {
				a.display.PrintInfo("Conversación: " + *conv.Title)
			}
			a.display.PrintMessages(a.session.State().Messages)
		}
	case "/delete":
		if len(args) != 1 {
			a.display.PrintInfo("Uso: /delete <id>")
			return
		}
		if err := a.session.DeleteConversation(ctx, args[0]); err == nil {
			a.display.PrintSuccess("Conversación eliminada")
		}
	case "/sources":
		a.display.PrintSources(a.session.State().Sources)
	case "/voice":
		a.handleVoice(ctx)

	case "/health":
		status, err := a.client.Health(ctx)
		if err != nil {
			a.display.PrintError(err)
			return
		}
		a.display.PrintHealth(status)

	case "/docs", "/upload", "/deldoc", "/providers", "/config", "/setconfig",
		"/setkey", "/checkkey", "/users", "/role":
		if !a.store.User().IsAdmin() {
			a.display.PrintWarning("Este comando requiere rol de administrador")
			return
		}
		a.handleAdminCommand(ctx, command, args)

	default:
		a.display.PrintInfo("Comando desconocido. Usa /help.")
	}
}

// handleSend runs the optimistic send flow and renders the result
func (a *app) handleSend(ctx context.Context, content, inputType string) {
	if !a.store.IsAuthenticated() {
		a.display.PrintWarning("Inicia sesión primero con /login")
		return
	}

	a.display.PrintUserMessage(content, time.Now())
	a.display.PrintInfo("Pensando...")

	if _, err := a.session.Send(ctx, content, inputType); err != nil {
		// The banner at the top of the loop shows the state error; the
		// avatar recovers to idle here (caller policy)
		a.session.Dispatch(chat.Action{Type: chat.SetAvatar, Avatar: chat.AvatarIdle})
		return
	}

	st := a.session.State()
	if len(st.Messages) > 0 {
		last := st.Messages[len(st.Messages)-1]
		if last.Role == chat.RoleAssistant {
			a.display.PrintAssistantMessage(last)
		}
	}
	if len(st.Sources) > 0 {
		a.display.PrintInfo(fmt.Sprintf("%d fuentes citadas — /sources para verlas", len(st.Sources)))
	}

	// With no audible playback the avatar goes straight back to idle
	if a.speaker == nil || !a.speaker.Speaking() {
		a.session.OnPlaybackStopped()
	}
}

// handleVoice captures a spoken question and sends it through the same
// flow as text, with voice input type
func (a *app) handleVoice(ctx context.Context) {
	if a.recognizer == nil || !a.recognizer.Supported() {
		a.display.PrintWarning("Entrada de voz no disponible en este equipo")
		return
	}
	if a.recognizer.Listening() {
		a.display.PrintWarning("Ya hay una grabación en curso")
		return
	}

	a.session.Dispatch(chat.Action{Type: chat.SetInputMode, Mode: chat.InputVoice})
	a.session.Dispatch(chat.Action{Type: chat.SetAvatar, Avatar: chat.AvatarListening})

	if err := a.recognizer.Start(ctx); err != nil {
		a.session.Dispatch(chat.Action{Type: chat.SetError, Text: err.Error()})
		a.session.Dispatch(chat.Action{Type: chat.SetAvatar, Avatar: chat.AvatarIdle})
		return
	}

	a.display.PrintInfo("Grabando... pulsa Enter para terminar")
	terminal.ReadUserInput()

	transcript, err := a.recognizer.Stop(ctx)
	if err != nil {
		a.session.Dispatch(chat.Action{Type: chat.SetError, Text: err.Error()})
		a.session.Dispatch(chat.Action{Type: chat.SetAvatar, Avatar: chat.AvatarIdle})
		return
	}
	if transcript == "" {
		a.display.PrintInfo("No se detectó voz")
		a.session.Dispatch(chat.Action{Type: chat.SetAvatar, Avatar: chat.AvatarIdle})
		return
	}

	a.handleSend(ctx, transcript, chat.InputVoice)
	a.session.Dispatch(chat.Action{Type: chat.SetInputMode, Mode: chat.InputText})
}

func (a *app) handleLogin(ctx context.Context) {
	email, err := terminal.ReadField("Email: ")
	if err != nil {
		return
	}
	password, err := terminal.ReadPassword("Contraseña: ")
	if err != nil {
		return
	}
	if email == "" || password == "" {
		a.display.PrintWarning("Email y contraseña son obligatorios")
		return
	}

	resp, err := a.client.Login(ctx, email, password)
	if err != nil {
		a.display.PrintError(err)
		return
	}
	a.display.PrintSuccess("Bienvenido, " + resp.User.DisplayName)
	if err := a.session.LoadConversations(ctx); err != nil {
		a.display.PrintWarning(fmt.Sprintf("No se pudieron cargar las conversaciones: %v", err))
	}
}

func (a *app) handleRegister(ctx context.Context) {
	email, err := terminal.ReadField("Email: ")
	if err != nil {
		return
	}
	displayName, err := terminal.ReadField("Nombre: ")
	if err != nil {
		return
	}
	password, err := terminal.ReadPassword("Contraseña: ")
	if err != nil {
		return
	}
	confirm, err := terminal.ReadPassword("Confirmar contraseña: ")
	if err != nil {
		return
	}

	// Client-side validation before hitting the backend
	if email == "" || displayName == "" {
		a.display.PrintWarning("Email y nombre son obligatorios")
		return
	}
	if password != confirm {
		a.display.PrintWarning("Las contraseñas no coinciden")
		return
	}
	if len(password) < 6 {
		a.display.PrintWarning("La contraseña debe tener al menos 6 caracteres")
		return
	}

	resp, err := a.client.Register(ctx, email, password, displayName)
	if err != nil {
		a.display.PrintError(err)
		return
	}
	a.display.PrintSuccess("Cuenta creada. Bienvenido, " + resp.User.DisplayName)
}

func (a *app) handleMe(ctx context.Context) {
	user, err := a.client.Me(ctx)
	if err != nil {
		a.display.PrintError(err)
		return
	}
	a.store.SetUser(user)
	a.display.PrintInfo(fmt.Sprintf("%s <%s> — rol %s", user.DisplayName, user.Email, user.Role))
}
