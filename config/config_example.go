package config

// Example usage of the Config Manager
//
// Example 1: Load configuration
//
//	cfg, err := config.Load("")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Example 2: Change render defaults and save to YAML file
//
//	manager := config.GetManager()
//	cfg := manager.Get()
//
//	cfg.RenderWidth = 1920
//	cfg.RenderHeight = 1080
//	cfg.RetentionSchedule = "0 0 * * * *"
//
//	if err := manager.Save(cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Example 3: Create new manager with custom config path
//
//	manager := config.NewManager("studio.yaml")
//	cfg, err := manager.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Example config.yaml
//
//	server:
//	  port: "8080"
//	  publish_rate_limit: 10
//	render:
//	  ffmpeg_path: ffmpeg
//	  work_dir: ./renders
//	  audio_dir: ./audio
//	  width: 1280
//	  height: 720
//	  fps: 30
//	  timeout: 10m
//	publish:
//	  endpoint: http://localhost:8080/api/publish
//	  max_video_bytes: 268435456
//	  default_privacy: private
//	  timeout: 15m
//	retention:
//	  artifact_ttl: 24h
//	  schedule: "0 */30 * * * *"
