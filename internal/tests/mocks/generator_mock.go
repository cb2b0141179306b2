package mocks

import (
	"context"
)

type GeneratorMock struct {
	GenerateFunc func(ctx context.Context, prompt, systemInstruction string) (string, error)
	StreamFunc   func(ctx context.Context, prompt, systemInstruction string, onChunk func(chunk string)) (string, error)
}

func (m *GeneratorMock) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, systemInstruction)
	}
	return "", nil
}

func (m *GeneratorMock) Stream(ctx context.Context, prompt, systemInstruction string, onChunk func(chunk string)) (string, error) {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, prompt, systemInstruction, onChunk)
	}
	return m.Generate(ctx, prompt, systemInstruction)
}
