package handlers

import (
	"github.com/edgard/mathsolverbot/internal/bot/menu"
	"github.com/edgard/mathsolverbot/internal/solver"
)

func welcomeScreen(deps HandlerDeps) screen {
	return screen{deps.Config.Messages.Welcome, menu.MainMenu(deps.Store != nil)}
}

func mainMenuScreen(deps HandlerDeps) screen {
	return screen{deps.Config.Messages.MainMenu, menu.MainMenu(deps.Store != nil)}
}

func solveModeScreen(deps HandlerDeps) screen {
	return screen{deps.Config.Messages.SolveMode, menu.BackButton(menu.CallbackMainMenu)}
}

func examplesScreen(deps HandlerDeps) screen {
	return screen{deps.Config.Messages.Examples, menu.ExamplesMenu()}
}

func helpScreen(deps HandlerDeps) screen {
	return screen{deps.Config.Messages.Help, menu.BackButton(menu.CallbackMainMenu)}
}

func resultScreen(deps HandlerDeps, res solver.Result) screen {
	explain := deps.Explainer != nil && deps.Store != nil
	return screen{menu.RenderSolution(res), menu.ResultKeyboard(explain)}
}
