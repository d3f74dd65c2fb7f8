package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/LJTian/BizPlanner/internal/aggregator"
)

const refreshTimeout = 60 * time.Second

// Refresher 重新构建摘要并写入缓存
type Refresher interface {
	Refresh(ctx context.Context) (*aggregator.Digest, error)
}

// Scheduler 定时预热新闻摘要缓存，使用户请求尽量命中缓存
type Scheduler struct {
	cron         *cron.Cron
	refresher    Refresher
	startupDelay time.Duration
}

func New(spec string, r Refresher) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:         c,
		refresher:    r,
		startupDelay: 5 * time.Second,
	}

	_, err := c.AddFunc(spec, s.runOnce)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 稍后执行首轮预热，避免和启动阶段争抢资源
	time.AfterFunc(s.startupDelay, func() {
		go s.runOnce()
	})
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce 对外暴露的单次执行入口，方便手动触发预热
func (s *Scheduler) RunOnce() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	log.Println("start news warm job...")
	d, err := s.refresher.Refresh(ctx)
	if err != nil {
		log.Printf("news warm job error: %v", err)
		return
	}
	log.Printf("news warm job done, total=%d returned=%d", d.Total, len(d.Articles))
}
