package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"iupchat/internal/api"
	"iupchat/internal/auth"
	"iupchat/internal/chat"
)

// Display renders the chat surface in the terminal
type Display struct {
	width    int
	renderer *glamour.TermRenderer
}

// NewDisplay creates a terminal display with a markdown renderer
func NewDisplay() *Display {
	width := getTerminalWidth()

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-10),
	)

	return &Display{
		width:    width,
		renderer: renderer,
	}
}

// Color codes
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorGray    = "\033[90m"
)

// avatarFaces maps the assistant's mood to its terminal presence
var avatarFaces = map[chat.AvatarState]string{
	chat.AvatarIdle:      "(・‿・)",
	chat.AvatarListening: "(・o・)🎤",
	chat.AvatarThinking:  "(・‥・)…",
	chat.AvatarSpeaking:  "(・▿・)🔊",
}

// ClearScreen clears the terminal
func (d *Display) ClearScreen() {
	fmt.Print("\033[2J\033[H")
}

// PrintWelcome displays the welcome banner
func (d *Display) PrintWelcome(baseURL string, user *auth.User) {
	d.ClearScreen()
	fmt.Printf("%s%s╔══════════════════════════════════════════════════════════╗%s\n", colorBold, colorCyan, colorReset)
	fmt.Printf("%s%s║          iupchat - Chatbot Universitario IUP             ║%s\n", colorBold, colorCyan, colorReset)
	fmt.Printf("%s%s╚══════════════════════════════════════════════════════════╝%s\n", colorBold, colorCyan, colorReset)
	fmt.Printf("\n%s%sBackend:%s %s\n", colorBold, colorGray, colorReset, baseURL)
	if user != nil {
		fmt.Printf("%s%sSesión:%s %s (%s)\n", colorBold, colorGray, colorReset, user.DisplayName, user.Role)
	} else {
		fmt.Printf("%s%sSesión:%s sin iniciar — usa /login o /register\n", colorBold, colorGray, colorReset)
	}
	fmt.Printf("%sComandos:%s /help para la lista completa | /voice para hablar | /exit para salir\n", colorGray, colorReset)
	fmt.Println()
}

// PrintHelp lists the available commands
func (d *Display) PrintHelp(admin bool) {
	fmt.Println()
	fmt.Printf("%sConversación%s\n", colorBold, colorReset)
	fmt.Println("  <texto>            enviar un mensaje")
	fmt.Println("  /voice             grabar una pregunta por voz")
	fmt.Println("  /new               nueva conversación")
	fmt.Println("  /list              listar conversaciones")
	fmt.Println("  /select <id>       cambiar de conversación")
	fmt.Println("  /delete <id>       eliminar conversación")
	fmt.Println("  /sources           fuentes de la última respuesta")
	fmt.Printf("%sSesión%s\n", colorBold, colorReset)
	fmt.Println("  /login /register /logout /me")
	if admin {
		fmt.Printf("%sAdministración%s\n", colorBold, colorReset)
		fmt.Println("  /docs              listar documentos")
		fmt.Println("  /upload <ruta>     subir documento")
		fmt.Println("  /deldoc <id>       eliminar documento")
		fmt.Println("  /providers         proveedores LLM")
		fmt.Println("  /config            configuración LLM")
		fmt.Println("  /setconfig <proveedor> <modelo>   cambiar proveedor/modelo")
		fmt.Println("  /setkey <proveedor>       guardar API key")
		fmt.Println("  /checkkey <proveedor>     verificar API key")
		fmt.Println("  /users             listar usuarios")
		fmt.Println("  /role <id> <rol>   cambiar rol de usuario")
	}
	fmt.Printf("%sOtros%s\n", colorBold, colorReset)
	fmt.Println("  /health /clear /help /exit")
	fmt.Println()
}

// PrintAvatar shows the assistant's current mood
func (d *Display) PrintAvatar(state chat.AvatarState) {
	face, ok := avatarFaces[state]
	if !ok {
		face = avatarFaces[chat.AvatarIdle]
	}
	fmt.Printf("%s  %s  %s%s\n", colorMagenta, face, string(state), colorReset)
}

// PrintPrompt displays the input prompt
func (d *Display) PrintPrompt() {
	fmt.Printf("\n%s%s❯%s ", colorBold, colorGreen, colorReset)
}

// PrintUserMessage echoes a sent user message
func (d *Display) PrintUserMessage(content string, timestamp time.Time) {
	fmt.Printf("\n%s┌─ Tú · %s%s\n", colorGray, timestamp.Format("15:04:05"), colorReset)
	fmt.Printf("%s│%s %s\n", colorGray, colorReset, content)
}

// PrintAssistantMessage renders an assistant reply as markdown
func (d *Display) PrintAssistantMessage(msg chat.Message) {
	fmt.Printf("\n%s┌─ Asistente%s\n", colorCyan, colorReset)
	rendered, err := d.renderer.Render(msg.Content)
	if err != nil {
		fmt.Println(msg.Content)
	} else {
		fmt.Print(rendered)
	}
	if msg.ResponseTimeMs != nil {
		fmt.Printf("%s(%d ms)%s\n", colorDim, *msg.ResponseTimeMs, colorReset)
	}
}

// PrintMessages renders a conversation transcript
func (d *Display) PrintMessages(messages []chat.Message) {
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			fmt.Printf("\n%sTú:%s %s\n", colorGreen, colorReset, msg.Content)
		case chat.RoleAssistant:
			d.PrintAssistantMessage(msg)
		}
	}
}

// PrintSources renders the retrieval sources backing the last reply
func (d *Display) PrintSources(sources []chat.SourceInfo) {
	if len(sources) == 0 {
		d.PrintInfo("La última respuesta no cita fuentes")
		return
	}
	fmt.Printf("\n%sFuentes:%s\n", colorBold, colorReset)
	for i, src := range sources {
		fmt.Printf("  %d. %s %s(%.2f)%s\n", i+1, src.DocumentTitle, colorDim, src.Score, colorReset)
		preview := src.ContentPreview
		if len(preview) > 120 {
			preview = preview[:120] + "…"
		}
		fmt.Printf("     %s%s%s\n", colorGray, preview, colorReset)
	}
}

// PrintConversations lists conversations with ids
func (d *Display) PrintConversations(conversations []chat.Conversation, activeID string) {
	if len(conversations) == 0 {
		d.PrintInfo("No hay conversaciones todavía")
		return
	}
	fmt.Println()
	for _, c := range conversations {
		marker := "  "
		if c.ID == activeID {
			marker = colorGreen + "▸ " + colorReset
		}
		title := "(sin título)"
		if c.Title != nil && *c.Title != "" {
			title = *c.Title
		}
		fmt.Printf("%s%s  %s%s%s\n", marker, c.ID, colorGray, title, colorReset)
	}
}

// PrintDocuments lists ingested documents
func (d *Display) PrintDocuments(documents []api.DocumentInfo) {
	if len(documents) == 0 {
		d.PrintInfo("No hay documentos ingresados")
		return
	}
	fmt.Println()
	for _, doc := range documents {
		fmt.Printf("  %s  %s %s[%s, %d fragmentos]%s\n",
			doc.ID, doc.Title, colorGray, doc.IngestionStatus, doc.TotalChunks, colorReset)
	}
}

// PrintProviders lists LLM providers
func (d *Display) PrintProviders(providers []api.ProviderInfo) {
	fmt.Println()
	for _, p := range providers {
		status := colorRed + "no disponible" + colorReset
		if p.IsAvailable {
			status = colorGreen + "disponible" + colorReset
		}
		marker := " "
		if p.IsDefault {
			marker = colorGreen + "*" + colorReset
		}
		fmt.Printf("  %s %s (%s): %s\n", marker, p.Name, strings.Join(p.Models, ", "), status)
	}
}

// PrintUsers lists registered users
func (d *Display) PrintUsers(users []auth.User) {
	fmt.Println()
	for _, u := range users {
		fmt.Printf("  %s  %s <%s> %s[%s]%s\n", u.ID, u.DisplayName, u.Email, colorGray, u.Role, colorReset)
	}
}

// PrintHealth renders the backend health report
func (d *Display) PrintHealth(status *api.HealthStatus) {
	fmt.Printf("\nEstado: %s\n", status.Status)
	for name, svc := range status.Services {
		fmt.Printf("  %s: %s\n", name, svc.Status)
	}
}

// PrintError displays an error message
func (d *Display) PrintError(err error) {
	fmt.Printf("%s✗ %v%s\n", colorRed, err, colorReset)
}

// PrintWarning displays a warning message
func (d *Display) PrintWarning(msg string) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, msg, colorReset)
}

// PrintInfo displays an informational message
func (d *Display) PrintInfo(msg string) {
	fmt.Printf("%sℹ %s%s\n", colorBlue, msg, colorReset)
}

// PrintSuccess displays a success message
func (d *Display) PrintSuccess(msg string) {
	fmt.Printf("%s✓ %s%s\n", colorGreen, msg, colorReset)
}

// PrintSeparator prints a visual separator
func (d *Display) PrintSeparator() {
	line := strings.Repeat("─", min(d.width, 80))
	fmt.Printf("%s%s%s\n", colorDim, line, colorReset)
}

// PrintGoodbye prints the farewell message
func (d *Display) PrintGoodbye() {
	fmt.Printf("\n%s¡Hasta pronto!%s\n", colorCyan, colorReset)
}

// getTerminalWidth returns the terminal width, defaulting to 100
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 100
	}
	return width
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
