package main

import (
	"context"
	"fmt"
	"strconv"

	"iupchat/internal/api"
	"iupchat/internal/terminal"
)

// handleAdminCommand dispatches the admin console commands; the caller has
// already checked the admin role
func (a *app) handleAdminCommand(ctx context.Context, command string, args []string) {
	switch command {
	case "/docs":
		a.handleListDocuments(ctx, args)
	case "/upload":
		a.handleUpload(ctx, args)
	case "/deldoc":
		if len(args) != 1 {
			a.display.PrintInfo("Uso: /deldoc <id>")
			return
		}
		if err := a.client.DeleteDocument(ctx, args[0]); err != nil {
			a.display.PrintError(err)
			return
		}
		a.display.PrintSuccess("Documento eliminado")
	case "/providers":
		providers, err := a.client.ListProviders(ctx)
		if err != nil {
			a.display.PrintError(err)
			return
		}
		a.display.PrintProviders(providers)
	case "/config":
		cfg, err := a.client.GetLLMConfig(ctx)
		if err != nil {
			a.display.PrintError(err)
			return
		}
		a.display.PrintInfo(fmt.Sprintf("Proveedor: %s — Modelo: %s", cfg.DefaultProvider, cfg.DefaultModel))
		if cfg.Temperature != nil {
			a.display.PrintInfo(fmt.Sprintf("Temperatura: %.2f", *cfg.Temperature))
		}
		if cfg.MaxTokens != nil {
			a.display.PrintInfo(fmt.Sprintf("Máx. tokens: %d", *cfg.MaxTokens))
		}
	case "/setconfig":
		a.handleSetConfig(ctx, args)
	case "/setkey":
		a.handleSetKey(ctx, args)
	case "/checkkey":
		if len(args) != 1 {
			a.display.PrintInfo("Uso: /checkkey <proveedor>")
			return
		}
		status, err := a.client.CheckAPIKey(ctx, args[0])
		if err != nil {
			a.display.PrintError(err)
			return
		}
		if status.Configured {
			a.display.PrintSuccess("Clave configurada para " + status.Provider)
		} else {
			a.display.PrintWarning("Sin clave configurada para " + status.Provider)
		}
	case "/users":
		users, err := a.client.ListUsers(ctx)
		if err != nil {
			a.display.PrintError(err)
			return
		}
		a.display.PrintUsers(users)
	case "/role":
		if len(args) != 2 {
			a.display.PrintInfo("Uso: /role <user-id> <student|admin>")
			return
		}
		if err := a.client.UpdateUserRole(ctx, args[0], args[1]); err != nil {
			a.display.PrintError(err)
			return
		}
		a.display.PrintSuccess("Rol actualizado")
	}
}

func (a *app) handleListDocuments(ctx context.Context, args []string) {
	page := 1
	if len(args) == 1 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 {
			a.display.PrintInfo("Uso: /docs [página]")
			return
		}
		page = parsed
	}
	documents, err := a.client.ListDocuments(ctx, page, a.cfg.PageLimit)
	if err != nil {
		a.display.PrintError(err)
		return
	}
	a.display.PrintDocuments(documents)
}

func (a *app) handleUpload(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.display.PrintInfo("Uso: /upload <ruta>")
		return
	}
	title, err := terminal.ReadField("Título (opcional): ")
	if err != nil {
		return
	}
	faculty, err := terminal.ReadField("Facultad (opcional): ")
	if err != nil {
		return
	}
	program, err := terminal.ReadField("Programa (opcional): ")
	if err != nil {
		return
	}
	documentType, err := terminal.ReadField("Tipo de documento (opcional): ")
	if err != nil {
		return
	}

	a.display.PrintInfo("Subiendo documento...")
	result, err := a.client.UploadDocument(ctx, args[0], title, faculty, program, documentType)
	if err != nil {
		a.display.PrintError(err)
		return
	}
	a.display.PrintSuccess(fmt.Sprintf("Documento %s en estado %s", result.DocumentID, result.Status))
}

func (a *app) handleSetConfig(ctx context.Context, args []string) {
	if len(args) != 2 {
		a.display.PrintInfo("Uso: /setconfig <proveedor> <modelo>")
		return
	}
	cfg := api.LLMConfig{DefaultProvider: args[0], DefaultModel: args[1]}
	if err := a.client.UpdateLLMConfig(ctx, cfg); err != nil {
		a.display.PrintError(err)
		return
	}
	a.display.PrintSuccess("Configuración actualizada")
}

func (a *app) handleSetKey(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.display.PrintInfo("Uso: /setkey <proveedor>")
		return
	}
	apiKey, err := terminal.ReadPassword("Clave API: ")
	if err != nil {
		return
	}
	if apiKey == "" {
		a.display.PrintWarning("La clave no puede estar vacía")
		return
	}
	if err := a.client.SetAPIKey(ctx, args[0], apiKey); err != nil {
		a.display.PrintError(err)
		return
	}
	a.display.PrintSuccess("Clave guardada para " + args[0])
}
