package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Starting capture pipeline":                      "キャプチャパイプラインを開始します",
		"Output saved to %s":                             "出力を %s に保存しました",
		"Captured %d frames, encoded %d ticks in %d ms":  "%d フレームをキャプチャし、%d ティックを %d ms でエンコードしました",
		"Interrupted, shutting down...":                  "中断されました。シャットダウン中...",
		"Recording %s for %d ms...":                      "%s を %d ms 録画中...",
		"Using %s encoder":                               "%s エンコーダーを使用します",

		// Capture session
		"Starting screencast with JPEG quality %d":       "JPEG品質 %d でスクリーンキャストを開始",
		"Capture duration elapsed":                       "録画時間が経過しました",
		"Capture cancelled":                              "キャプチャがキャンセルされました",
		"Captured %d frames":                             "%d フレームをキャプチャしました",
		"Stop screencast failed: %s":                     "スクリーンキャストの停止に失敗しました: %s",
		"Discarding frame with invalid base64 payload: %s": "不正なbase64ペイロードのフレームを破棄します: %s",

		// Decode stage
		"Dropping undecodable frame at %d ms: %s":        "%d ms のデコード不能フレームを破棄します: %s",
		"Dropped %d of %d frames":                        "%d / %d フレームを破棄しました",

		// Resample stage
		"Resampled %d ticks at %.1f fps":                 "%d ティックを %.1f fps でリサンプリングしました",

		// Encode stage
		"Encoding %dx%d at %.1f fps":                     "%dx%d を %.1f fps でエンコード中",
		"Video encoded: %d bytes":                        "動画エンコード完了: %d バイト",

		// Warnings and errors
		"Capture failed: %s":                             "キャプチャに失敗しました: %s",
		"Partial output saved to %s (%d frames)":         "部分出力を %s に保存しました (%d フレーム)",
		"Failed to launch browser: %s":                   "ブラウザの起動に失敗しました: %s",
		"Failed to navigate: %s":                         "ページ移動に失敗しました: %s",
	})
}
