package sos

import (
	"strconv"
	"strings"

	"SentriSafe/internal/device"
)

// 警报文案固定片段
const (
	alertBanner         = "🚨 EMERGENCY SOS ALERT"
	alertCallToAction   = "Please check on this person immediately or contact emergency services."
	locationUnavailable = "Location unavailable"
)

// LocationLink 生成地图链接；无定位时返回固定文案
func LocationLink(loc *device.Coordinate) string {
	if loc == nil {
		return locationUnavailable
	}
	lat := strconv.FormatFloat(loc.Latitude, 'f', -1, 64)
	lon := strconv.FormatFloat(loc.Longitude, 'f', -1, 64)
	return "https://maps.google.com/maps?q=" + lat + "," + lon
}

// ComposeAlertMessage 拼装完整警报正文：横幅、预写短信、定位、行动提示各占一段
//
// 写入任何记录之前正文必须已经完整，不存在部分拼装的中间态
func ComposeAlertMessage(cannedText string, loc *device.Coordinate) string {
	parts := []string{
		alertBanner,
		cannedText,
		"Location: " + LocationLink(loc),
		alertCallToAction,
	}
	return strings.Join(parts, "\n\n")
}
