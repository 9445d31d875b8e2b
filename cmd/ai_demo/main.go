// README: Manual classifier demo; classifies one Spanish message against Gemini.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"andino/internal/agent"
	"andino/internal/ai"
)

func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	ctx := context.Background()
	provider, err := ai.NewGeminiProvider(ctx, apiKey)
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v", err)
	}
	defer provider.Close()

	logger, _ := zap.NewDevelopment()
	classifier := agent.NewClassifier(provider, logger)

	userMessage := "Quiero ir a Guatavita el fin de semana con mi novia, máximo 800 mil pesos"
	if len(os.Args) > 1 {
		userMessage = os.Args[1]
	}
	fmt.Printf("User: %s\n", userMessage)

	result := classifier.Classify(ctx, userMessage, nil, nil)

	fmt.Printf("Intent: %s (%.2f)\n", result.Intent, result.Confidence)
	fmt.Printf("Reasoning: %s\n", result.Reasoning)
	if result.Extracted.Destination != nil {
		fmt.Printf("Destination: %s\n", *result.Extracted.Destination)
	}
	if result.Extracted.Days != nil {
		fmt.Printf("Days: %d\n", *result.Extracted.Days)
	}
	if result.Extracted.PartySize != nil {
		fmt.Printf("Party size: %d\n", *result.Extracted.PartySize)
	}
	if result.Extracted.BudgetMax != nil {
		fmt.Printf("Budget max: %.0f\n", *result.Extracted.BudgetMax)
	}
}
