package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"3000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	DBType         string `env:"DBType" envDefault:"sqlite"`
	DSNURL         string `env:"DSN_URL" envDefault:""`
	DBUser         string `env:"DBUser" envDefault:""`
	DBPassword     string `env:"DBPassword" envDefault:""`
	DBAddr         string `env:"DBAddr" envDefault:""`
	DBName         string `env:"DBName" envDefault:"huchenghe"`
	DBPath         string `env:"DBPath" envDefault:"datas/huchenghe.db"`
	DBPort         string `env:"DBPort" envDefault:"3306"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`

	// 上传文件与存储浏览共用同一个本地根目录
	StorageType          string `env:"STORAGE_TYPE" envDefault:"local"`
	StorageLocalDir      string `env:"STORAGE_LOCAL_DIR" envDefault:"storage"`
	StoragePublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL" envDefault:"/files"`
	StorageRetentionDays int    `env:"STORAGE_RETENTION_DAYS" envDefault:"30"`
	StorageWarnThreshold int    `env:"STORAGE_WARNING_THRESHOLD" envDefault:"80"`
	UploadMaxMB          int64  `env:"UPLOAD_MAX_MB" envDefault:"512"`

	// S3 兼容存储配置
	StorageS3Region          string `env:"STORAGE_S3_REGION"`
	StorageS3Bucket          string `env:"STORAGE_S3_BUCKET"`
	StorageS3Prefix          string `env:"STORAGE_S3_PREFIX"`
	StorageS3Endpoint        string `env:"STORAGE_S3_ENDPOINT"`
	StorageS3AccessKeyID     string `env:"STORAGE_S3_ACCESS_KEY_ID"`
	StorageS3SecretAccessKey string `env:"STORAGE_S3_SECRET_ACCESS_KEY"`
	StorageS3SessionToken    string `env:"STORAGE_S3_SESSION_TOKEN"`
	StorageS3ForcePathStyle  bool   `env:"STORAGE_S3_FORCE_PATH_STYLE" envDefault:"false"`

	// 阿里云 OSS 存储配置
	StorageOSSEndpoint        string `env:"STORAGE_OSS_ENDPOINT"`
	StorageOSSBucket          string `env:"STORAGE_OSS_BUCKET"`
	StorageOSSPrefix          string `env:"STORAGE_OSS_PREFIX"`
	StorageOSSAccessKeyID     string `env:"STORAGE_OSS_ACCESS_KEY_ID"`
	StorageOSSAccessKeySecret string `env:"STORAGE_OSS_ACCESS_KEY_SECRET"`

	// 腾讯云 COS 存储配置
	StorageCOSBucketURL string `env:"STORAGE_COS_BUCKET_URL"`
	StorageCOSPrefix    string `env:"STORAGE_COS_PREFIX"`
	StorageCOSSecretID  string `env:"STORAGE_COS_SECRET_ID"`
	StorageCOSSecretKey string `env:"STORAGE_COS_SECRET_KEY"`

	// Cloudflare R2 存储配置
	StorageR2AccountID       string `env:"STORAGE_R2_ACCOUNT_ID"`
	StorageR2Endpoint        string `env:"STORAGE_R2_ENDPOINT"`
	StorageR2Region          string `env:"STORAGE_R2_REGION" envDefault:"auto"`
	StorageR2Bucket          string `env:"STORAGE_R2_BUCKET"`
	StorageR2Prefix          string `env:"STORAGE_R2_PREFIX"`
	StorageR2AccessKeyID     string `env:"STORAGE_R2_ACCESS_KEY_ID"`
	StorageR2SecretAccessKey string `env:"STORAGE_R2_SECRET_ACCESS_KEY"`

	// MinIO 存储配置
	StorageMinIOEndpoint  string `env:"STORAGE_MINIO_ENDPOINT"`
	StorageMinIOBucket    string `env:"STORAGE_MINIO_BUCKET"`
	StorageMinIOPrefix    string `env:"STORAGE_MINIO_PREFIX"`
	StorageMinIOAccessKey string `env:"STORAGE_MINIO_ACCESS_KEY"`
	StorageMinIOSecretKey string `env:"STORAGE_MINIO_SECRET_KEY"`
	StorageMinIOUseSSL    bool   `env:"STORAGE_MINIO_USE_SSL" envDefault:"false"`

	JWTSecret              string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTIssuer              string `env:"JWT_ISSUER" envDefault:"huchenghe"`
	JWTExpirationMinutes   int    `env:"JWT_EXPIRATION_MINUTES" envDefault:"1440"`
	AuthRequired           bool   `env:"AUTH_REQUIRED" envDefault:"false"`
	UpgradeLegacyPasswords bool   `env:"UPGRADE_LEGACY_PASSWORDS" envDefault:"true"`

	SeedDefaultAdmin     bool   `env:"SEED_DEFAULT_ADMIN" envDefault:"true"`
	DefaultAdminUsername string `env:"DEFAULT_ADMIN_USERNAME" envDefault:"admin"`
	DefaultAdminPhone    string `env:"DEFAULT_ADMIN_PHONE" envDefault:"12345678912"`
	DefaultAdminPassword string `env:"DEFAULT_ADMIN_PASSWORD" envDefault:"12345678912"`
	DefaultAdminEmail    string `env:"DEFAULT_ADMIN_EMAIL" envDefault:"admin@example.com"`
	DefaultUserPassword  string `env:"DEFAULT_USER_PASSWORD" envDefault:"123456"`
	SeedSampleModels     bool   `env:"SEED_SAMPLE_MODELS" envDefault:"false"`

	WebDistDir string `env:"WEB_DIST_DIR" envDefault:""`
}

func ParseConfig() (Config, error) {
	var Conf Config
	err := env.Parse(&Conf)
	if err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	logrus.Debugf("%#v\n", Conf)
	return Conf, nil
}

// ConfigureLogger 按配置设置全局 logrus 的格式和级别
func ConfigureLogger(cfg Config) {
	switch cfg.LogFormat {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).WithField("level", cfg.LogLevel).Warn("invalid log level, falling back to info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
