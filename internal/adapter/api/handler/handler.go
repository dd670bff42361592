package handler

import (
	"campusaid/internal/usecase"
)

var (
	authHandler        *AuthHandler
	helpRequestHandler *HelpRequestHandler
	chatHandler        *ChatHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	helpRequestUseCase *usecase.HelpRequestUseCase,
	chatUseCase *usecase.ChatUseCase,
) {
	authHandler = NewAuthHandler(authUseCase)
	helpRequestHandler = NewHelpRequestHandler(helpRequestUseCase)
	chatHandler = NewChatHandler(chatUseCase)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetHelpRequestHandler() *HelpRequestHandler {
	return helpRequestHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}
