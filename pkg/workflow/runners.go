package workflow

import (
	"github.com/shouni/go-story-kit/pkg/publisher"
	"github.com/shouni/go-story-kit/pkg/runner"
)

// BuildStoryRunner は、Story ステージを担当する Runner を作成します。
func (m *Manager) BuildStoryRunner() (StoryRunner, error) {
	return runner.NewStoryRunner(m.cfg, m.ideas, m.publisher), nil
}

// BuildIllustratorRunner は、Illustrator ステージを担当する Runner を作成します。
func (m *Manager) BuildIllustratorRunner() (IllustratorRunner, error) {
	return runner.NewIllustratorRunner(m.cfg, m.prompts, m.text, m.images, m.store, m.publisher, m.drafts), nil
}

// BuildPublishRunner は、Publisher ステージを担当する Runner を作成します。
func (m *Manager) BuildPublishRunner() (PublishRunner, error) {
	pages := publisher.NewPagePublisher(m.store)
	index := publisher.NewIndexUpdater(m.store, m.cfg.IndexMaxAttempts)
	return runner.NewPublishRunner(m.cfg, m.prompts, m.text, pages, index, m.requests), nil
}
