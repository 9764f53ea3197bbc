package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/convosol/docchat/pkg/config"
	"github.com/convosol/docchat/pkg/llm"
	"github.com/convosol/docchat/pkg/retriever"
)

var greetings = []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "greetings", "howdy"}

func runChat(cfg *config.Config) error {
	vs, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer vs.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	chatEngine, err := llm.NewChatEngine(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		BaseURL:     cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	retr := retriever.New(embedder, vs)

	color.Cyan("Loaded store with %d chunks. Ask about your documents (type 'exit' to quit)", vs.Len())

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(question, "exit") || strings.EqualFold(question, "quit") {
			break
		}
		if question == "" {
			continue
		}
		if isGreeting(question) {
			assistantPrompt("\nAssistant: Hello! How can I help you with your documents today?\n")
			continue
		}

		ctx := context.Background()

		spinner := getSpinner(" Searching documents...")
		results, err := retr.Retrieve(ctx, question, cfg.Retrieval.TopK)
		spinner.Finish()
		if err != nil {
			color.Red("Error retrieving documents: %v\n", err)
			continue
		}

		if cfg.UI.Streaming {
			stream, err := chatEngine.ChatStream(ctx, question, results)
			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}

			assistantPrompt("\nAssistant: ")
			for chunk := range stream {
				if strings.HasPrefix(chunk, "Error:") {
					color.Red("\n%s", chunk)
					break
				}
				fmt.Print(chunk)
			}
			fmt.Print("\n")
		} else {
			spinner := getSpinner(" Generating answer...")
			answer, err := chatEngine.Chat(ctx, question, results)
			spinner.Finish()
			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}
			assistantPrompt("\nAssistant: %s\n", answer)
		}

		if sources := llm.FormatSources(results); sources != "" {
			color.Yellow("%s\n", sources)
		}
	}

	return nil
}

func isGreeting(question string) bool {
	q := strings.ToLower(question)
	for _, g := range greetings {
		if q == g || strings.HasPrefix(q, g+" ") {
			return true
		}
	}
	return false
}
